package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/danmuck/cmdclient/internal/command"
)

// WriteCommand writes cmd to s as five fields, flushing after each one. An
// empty metadata payload skips the fifth write and its flush.
//
// On failure the returned Field names the segment whose write or flush
// failed, and the stream error is returned unchanged. Size preconditions are
// checked before anything reaches s.
func WriteCommand(s Stream, cmd command.Command) (Field, error) {
	addr := cmd.Address().String()
	if len(addr) > math.MaxInt32 {
		return FieldAddress, fmt.Errorf("%w: address %d bytes", ErrFieldTooLarge, len(addr))
	}
	if cmd.MetadataLen() > math.MaxInt32 {
		return FieldMetadata, fmt.Errorf("%w: metadata %d bytes", ErrFieldTooLarge, cmd.MetadataLen())
	}

	if err := writeField(s, putInt32(int32(cmd.Kind()))); err != nil {
		return FieldKind, err
	}
	if err := writeField(s, putInt32(int32(len(addr)))); err != nil {
		return FieldAddressLen, err
	}
	if err := writeField(s, []byte(addr)); err != nil {
		return FieldAddress, err
	}
	if err := writeField(s, putInt32(int32(cmd.MetadataLen()))); err != nil {
		return FieldMetadataLen, err
	}
	if !cmd.HasMetadata() {
		return FieldNone, nil
	}
	if err := writeField(s, cmd.AppendMetadata(nil)); err != nil {
		return FieldMetadata, err
	}
	return FieldNone, nil
}

// EncodedLen reports how many bytes WriteCommand puts on the wire for cmd.
func EncodedLen(cmd command.Command) int {
	return 3*IntSize + len(cmd.Address().String()) + cmd.MetadataLen()
}

// AppendCommand appends the wire form of cmd to dst in one piece.
func AppendCommand(dst []byte, cmd command.Command) []byte {
	addr := cmd.Address().String()
	dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(cmd.Kind())))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(len(addr))))
	dst = append(dst, addr...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(cmd.MetadataLen())))
	return cmd.AppendMetadata(dst)
}

func writeField(s Stream, b []byte) error {
	n, err := s.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return s.Flush()
}

func putInt32(v int32) []byte {
	buf := make([]byte, IntSize)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}
