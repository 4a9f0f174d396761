package protocol

import "io"

// IntSize is the width of every fixed-size wire field.
const IntSize = 4

// Stream is the byte sink a command is written to. Flush must push buffered
// bytes to the peer; *bufio.Writer satisfies it.
type Stream interface {
	io.Writer
	Flush() error
}

// Field identifies one of the five wire segments of a command.
type Field uint8

const (
	FieldNone Field = iota
	FieldKind
	FieldAddressLen
	FieldAddress
	FieldMetadataLen
	FieldMetadata
)

func (f Field) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldKind:
		return "kind"
	case FieldAddressLen:
		return "address_len"
	case FieldAddress:
		return "address"
	case FieldMetadataLen:
		return "metadata_len"
	case FieldMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Limits constrains decode memory use.
type Limits struct {
	MaxAddressBytes  int32
	MaxMetadataBytes int32
}

func DefaultLimits() Limits {
	return Limits{
		MaxAddressBytes:  64,
		MaxMetadataBytes: 8 * 1024 * 1024,
	}
}
