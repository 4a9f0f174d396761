package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// FieldHeaderLen is id(2) + type(1) + length(4).
const FieldHeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("metadata: short field header")
	ErrShortFieldValue  = errors.New("metadata: short field value")
	ErrFieldType        = errors.New("metadata: field type mismatch")
	ErrFieldMissing     = errors.New("metadata: field missing")
)

type Type uint8

const (
	TypeU32    Type = 3
	TypeString Type = 6
	TypeBytes  Type = 7
)

// Well-known field ids.
const (
	FieldNetworkName  uint16 = 1
	FieldTimerSeconds uint16 = 2
	FieldMessageText  uint16 = 3
)

// Field is one TLV entry.
type Field struct {
	ID    uint16
	Type  Type
	Value []byte
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func U32(id uint16, v uint32) Field {
	return Field{ID: id, Type: TypeU32, Value: binary.LittleEndian.AppendUint32(nil, v)}
}

func Bytes(id uint16, v []byte) Field {
	return Field{ID: id, Type: TypeBytes, Value: append([]byte(nil), v...)}
}

func (f Field) AsString() (string, error) {
	if f.Type != TypeString {
		return "", fmt.Errorf("%w: field %d is type %d", ErrFieldType, f.ID, f.Type)
	}
	return string(f.Value), nil
}

func (f Field) AsU32() (uint32, error) {
	if f.Type != TypeU32 {
		return 0, fmt.Errorf("%w: field %d is type %d", ErrFieldType, f.ID, f.Type)
	}
	if len(f.Value) != 4 {
		return 0, fmt.Errorf("metadata: invalid u32 length: %d", len(f.Value))
	}
	return binary.LittleEndian.Uint32(f.Value), nil
}

// EncodeFields concatenates fields in order. Values longer than MaxUint32
// are rejected.
func EncodeFields(fields ...Field) ([]byte, error) {
	size := 0
	for _, f := range fields {
		if uint64(len(f.Value)) > math.MaxUint32 {
			return nil, fmt.Errorf("metadata: field %d value too large", f.ID)
		}
		size += FieldHeaderLen + len(f.Value)
	}
	out := make([]byte, 0, size)
	for _, f := range fields {
		out = binary.LittleEndian.AppendUint16(out, f.ID)
		out = append(out, byte(f.Type))
		out = binary.LittleEndian.AppendUint32(out, uint32(len(f.Value)))
		out = append(out, f.Value...)
	}
	return out, nil
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0, 2)
	for i := 0; i < len(payload); {
		if len(payload)-i < FieldHeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.LittleEndian.Uint16(payload[i : i+2])
		typ := Type(payload[i+2])
		l := binary.LittleEndian.Uint32(payload[i+3 : i+7])
		i += FieldHeaderLen
		if uint64(len(payload)-i) < uint64(l) {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Type: typ, Value: val})
	}
	return fields, nil
}

func GetField(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// LookupString decodes payload and returns the string field id.
func LookupString(payload []byte, id uint16) (string, error) {
	fields, err := DecodeFields(payload)
	if err != nil {
		return "", err
	}
	f, ok := GetField(fields, id)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrFieldMissing, id)
	}
	return f.AsString()
}
