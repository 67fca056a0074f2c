//go:build unix

package bkp9151

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isBusyErrno catches EBUSY from open(2) or the TIOCEXCL lock when the
// serial library reports it without a PortBusy code.
func isBusyErrno(err error) bool {
	return errors.Is(err, unix.EBUSY)
}
