package protocol

import "errors"

var (
	ErrFieldTooLarge    = errors.New("protocol: field too large")
	ErrTruncated        = errors.New("protocol: truncated data")
	ErrNegativeLength   = errors.New("protocol: negative length")
	ErrAddressTooLarge  = errors.New("protocol: address too large")
	ErrMetadataTooLarge = errors.New("protocol: metadata too large")
	ErrInvalidAddress   = errors.New("protocol: invalid address")
	ErrUnknownKind      = errors.New("protocol: unknown command kind")
)
