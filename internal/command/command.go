package command

import (
	"bytes"
	"fmt"
	"net/netip"
)

// Command is one instruction sent from client to server. The zero value is a
// UserExit with an invalid address and no metadata.
type Command struct {
	kind     Kind
	address  netip.Addr
	metadata []byte
}

// New builds a Command. It never fails: address parsing belongs to the
// caller. metadata is copied; nil and empty both mean absent.
func New(kind Kind, address netip.Addr, metadata []byte) Command {
	c := Command{kind: kind, address: address}
	if len(metadata) > 0 {
		c.metadata = bytes.Clone(metadata)
	}
	return c
}

func (c Command) Kind() Kind {
	return c.kind
}

func (c Command) Address() netip.Addr {
	return c.address
}

// Metadata returns a copy of the opaque payload, or nil when absent.
func (c Command) Metadata() []byte {
	if len(c.metadata) == 0 {
		return nil
	}
	return bytes.Clone(c.metadata)
}

func (c Command) MetadataLen() int {
	return len(c.metadata)
}

func (c Command) HasMetadata() bool {
	return len(c.metadata) > 0
}

// AppendMetadata appends the payload to dst without an intermediate copy.
func (c Command) AppendMetadata(dst []byte) []byte {
	return append(dst, c.metadata...)
}

// Equal reports whether both commands carry the same kind, address and payload.
func (c Command) Equal(other Command) bool {
	return c.kind == other.kind &&
		c.address == other.address &&
		bytes.Equal(c.metadata, other.metadata)
}

func (c Command) String() string {
	return fmt.Sprintf("%s addr=%s metadata=%dB", c.kind, c.address, len(c.metadata))
}
