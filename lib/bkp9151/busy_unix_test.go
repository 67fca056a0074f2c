//go:build unix

package bkp9151

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestIsBusyErrno(t *testing.T) {
	assert.True(t, isBusy(fmt.Errorf("open /dev/ttyUSB0: %w", unix.EBUSY)))
	assert.False(t, isBusy(fmt.Errorf("open /dev/ttyUSB0: %w", unix.ENOENT)))
	assert.False(t, isBusy(errors.New("something else")))
}
