// Package metadata builds and reads the opaque payload carried by a command.
//
// Two encodings are provided. Fields is a compact little-endian TLV list for
// the well-known values the client itself sends (network name, timer
// seconds, message text). Struct wraps a protobuf Struct for free-form
// key/value payloads.
package metadata
