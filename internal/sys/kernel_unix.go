//go:build unix && !linux

package sys

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Kernel is the Gateway backed by the platform's unix system calls.
type Kernel struct{}

func (Kernel) Write(fd int, p []byte) int {
	n, err := unix.Write(fd, p)
	if err != nil {
		var errno unix.Errno
		if errors.As(err, &errno) {
			return -int(errno)
		}
		return -int(unix.EIO)
	}
	return n
}

func (Kernel) Terminate(status int) {
	unix.Exit(status)
}
