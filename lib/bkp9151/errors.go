package bkp9151

import (
	"errors"
	"fmt"
)

// Error kinds returned by this package. Use errors.Is to test for them.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrTransport        = errors.New("transport error")
	ErrConnect          = errors.New("connect failed")
	ErrDeviceBusy       = errors.New("device busy")
	ErrSessionClosed    = errors.New("session closed")
	ErrReadTimeout      = errors.New("read timeout")
	ErrNoReply          = errors.New("no reply")
)

// ParameterError reports an argument that failed its validation rule.
// It is always raised before anything is written to the transport.
type ParameterError struct {
	Op     string // operation name, e.g. "SetCurrent"
	Param  string // parameter name
	Value  any    // offending value
	Reason string // what the rule expected
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v: %s", e.Op, e.Param, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// TransportError wraps a lower level I/O failure during a round-trip.
type TransportError struct {
	Op    string // operation name
	Stage string // flush, write or read
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Op, e.Stage, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConnectError is returned when the serial device cannot be opened.
// Busy is set when the platform reported the device as held exclusively by
// another process.
type ConnectError struct {
	Device string
	Busy   bool
	Err    error
}

func (e *ConnectError) Error() string {
	if e.Busy {
		return fmt.Sprintf("cannot open %s: device is busy: %v", e.Device, e.Err)
	}
	return fmt.Sprintf("cannot open %s: %v", e.Device, e.Err)
}

func (e *ConnectError) Is(target error) bool {
	switch target {
	case ErrConnect:
		return true
	case ErrDeviceBusy:
		return e.Busy
	}
	return false
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
