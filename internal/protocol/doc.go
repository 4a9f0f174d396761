// Package protocol owns the command wire contract.
//
// Ownership boundary:
// - five-field command encoding with per-field flush
// - conformant command decoding with read limits
// - field-level failure attribution
//
// Wire layout, per command, all integers little-endian int32:
//
//	kind | addr_len | addr (ASCII text) | meta_len | meta (raw)
package protocol
