package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/netip"

	"github.com/danmuck/cmdclient/internal/command"
)

// ReadCommand reads one command from r. io.EOF is returned unchanged when r
// ends cleanly before the first byte; a command cut short anywhere later
// yields ErrTruncated.
func ReadCommand(r io.Reader, limits Limits) (command.Command, error) {
	var head [IntSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return command.Command{}, io.EOF
		}
		return command.Command{}, truncated(err)
	}
	rawKind := int32(binary.LittleEndian.Uint32(head[:]))
	kind := command.Kind(rawKind)
	if !kind.Valid() {
		return command.Command{}, fmt.Errorf("%w: %d", ErrUnknownKind, rawKind)
	}

	addrLen, err := readInt32(r)
	if err != nil {
		return command.Command{}, err
	}
	if addrLen < 0 {
		return command.Command{}, fmt.Errorf("%w: address %d", ErrNegativeLength, addrLen)
	}
	if addrLen > limits.MaxAddressBytes {
		return command.Command{}, ErrAddressTooLarge
	}
	addrText, err := readBytes(r, addrLen)
	if err != nil {
		return command.Command{}, err
	}
	addr, err := netip.ParseAddr(string(addrText))
	if err != nil {
		return command.Command{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addrText)
	}

	metaLen, err := readInt32(r)
	if err != nil {
		return command.Command{}, err
	}
	if metaLen < 0 {
		return command.Command{}, fmt.Errorf("%w: metadata %d", ErrNegativeLength, metaLen)
	}
	if metaLen > limits.MaxMetadataBytes {
		return command.Command{}, ErrMetadataTooLarge
	}
	meta, err := readBytes(r, metaLen)
	if err != nil {
		return command.Command{}, err
	}
	return command.New(kind, addr, meta), nil
}

func readInt32(r io.Reader) (int32, error) {
	var buf [IntSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func readBytes(r io.Reader, n int32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, truncated(err)
	}
	return buf, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
