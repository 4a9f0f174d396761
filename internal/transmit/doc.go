// Package transmit sends commands over a shared stream under mutual
// exclusion.
//
// Ownership boundary:
// - send guard (weight-1 semaphore) and its acquire/release discipline
// - one encode-and-write round per Send, no retry
// - per-send metrics and event logging
//
// The guard is always released before Send returns, on success, on stream
// failure and on panic. A failed Send leaves the stream wherever the failing
// field stopped; resynchronising is the connection owner's job.
package transmit
