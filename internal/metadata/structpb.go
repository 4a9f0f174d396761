package metadata

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeStruct marshals a JSON-like map as a protobuf Struct. Values follow
// structpb.NewValue: nil, bool, numbers, string, []any, map[string]any.
func EncodeStruct(values map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(values)
	if err != nil {
		return nil, fmt.Errorf("metadata: build struct: %w", err)
	}
	out, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("metadata: marshal struct: %w", err)
	}
	return out, nil
}

// DecodeStruct is the inverse of EncodeStruct. Numbers come back as float64.
func DecodeStruct(payload []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("metadata: unmarshal struct: %w", err)
	}
	return s.AsMap(), nil
}
