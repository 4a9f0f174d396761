// Package client owns one command connection to a server.
//
// Ownership boundary:
// - dialing (TCP, optional TLS/mTLS) or adopting an established conn
// - login and user-exit bookends around a session
// - guarded sends through transmit.Transmitter
// - decoding server-initiated commands
//
// There is no reconnect: a failed write leaves the connection for the caller
// to Disconnect and Connect again.
package client
