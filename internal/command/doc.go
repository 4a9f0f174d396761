// Package command owns the command value model.
//
// Ownership boundary:
// - command kind enumeration and names
// - immutable Command construction and accessors
package command
