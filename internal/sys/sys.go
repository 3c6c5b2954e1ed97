// Package sys is the only part of nocrt that talks to the kernel. Each
// supported request is a single function over one raw trap; everything
// above this package works on plain values.
package sys

import (
	"io"

	"golang.org/x/sys/unix"
)

// Standard descriptors.
const (
	Stdout = 1
	Stderr = 2
)

// Gateway issues the kernel requests the runtime needs.
type Gateway interface {
	// Write returns the number of bytes the kernel accepted, or the
	// kernel's negative errno.
	Write(fd int, p []byte) int
	// Terminate ends the process with status. It does not return.
	Terminate(status int)
}

type unreachable struct{}

func (unreachable) Error() string { return "sys: execution continued after terminate" }

// Unreachable is the panic value placed directly after every Terminate call.
var Unreachable error = unreachable{}

// Errno converts a negative Write result into the matching unix.Errno.
// Non-negative results return nil.
func Errno(n int) error {
	if n >= 0 {
		return nil
	}
	return unix.Errno(-n)
}

// Print writes s to standard output.
func Print(gw Gateway, s string) int {
	return gw.Write(Stdout, []byte(s))
}

// FD adapts a gateway and descriptor to io.Writer.
type FD struct {
	Gateway Gateway
	Num     int
}

func (f FD) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n := f.Gateway.Write(f.Num, p[written:])
		if n < 0 {
			return written, Errno(n)
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
		written += n
	}
	return written, nil
}
