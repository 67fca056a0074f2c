package bkp9151

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Transport is the byte link the session drives. ReadLine must give up
// with an error (ErrReadTimeout) once the timeout has elapsed rather than
// block indefinitely.
type Transport interface {
	Write(p []byte) error
	ReadLine(timeout time.Duration) (string, error)
	FlushInput() error
	FlushOutput() error
	Close() error
}

// Connection defaults
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 3 * time.Second
	DefaultSettleDelay = 50 * time.Millisecond
)

// SerialConfig describes how to open the instrument's serial port.
type SerialConfig struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// SerialTransport is a line oriented Transport over a go.bug.st/serial port.
type SerialTransport struct {
	port    serial.Port
	device  string
	timeout time.Duration
	buf     []byte
	closed  bool
}

// Open opens the serial device as 8N1 at the configured baud rate.
// A device held by another process yields an error matching ErrDeviceBusy.
func Open(cfg SerialConfig) (*SerialTransport, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, &ConnectError{Device: cfg.Device, Busy: isBusy(err), Err: err}
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, &ConnectError{Device: cfg.Device, Err: fmt.Errorf("set read timeout: %w", err)}
	}

	return newSerialTransport(port, cfg.Device, cfg.ReadTimeout), nil
}

func newSerialTransport(port serial.Port, device string, timeout time.Duration) *SerialTransport {
	return &SerialTransport{
		port:    port,
		device:  device,
		timeout: timeout,
		buf:     make([]byte, 0, 256),
	}
}

func isBusy(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) && portErr.Code() == serial.PortBusy {
		return true
	}
	return isBusyErrno(err)
}

// Device returns the path the transport was opened on.
func (t *SerialTransport) Device() string { return t.device }

// IsOpen reports whether Close has not been called yet.
func (t *SerialTransport) IsOpen() bool { return !t.closed }

// Write writes all of p to the port.
func (t *SerialTransport) Write(p []byte) error {
	for len(p) > 0 {
		n, err := t.port.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("short write on %s", t.device)
		}
		p = p[n:]
	}
	return nil
}

// ReadLine returns the next line including its terminator. Bytes after the
// newline are kept for the next call.
func (t *SerialTransport) ReadLine(timeout time.Duration) (string, error) {
	if timeout != t.timeout {
		if err := t.port.SetReadTimeout(timeout); err != nil {
			return "", fmt.Errorf("set read timeout: %w", err)
		}
		t.timeout = timeout
	}

	deadline := time.Now().Add(timeout)
	chunk := make([]byte, 128)

	for {
		if i := bytes.IndexByte(t.buf, '\n'); i >= 0 {
			line := string(t.buf[:i+1])
			t.buf = append(t.buf[:0], t.buf[i+1:]...)
			return line, nil
		}

		n, err := t.port.Read(chunk)
		if err != nil {
			return "", err
		}
		// go.bug.st/serial returns 0 bytes when the read timeout expires
		if n == 0 {
			return "", fmt.Errorf("%w after %v (%d bytes pending)", ErrReadTimeout, timeout, len(t.buf))
		}
		t.buf = append(t.buf, chunk[:n]...)

		if time.Now().After(deadline) && bytes.IndexByte(t.buf, '\n') < 0 {
			return "", fmt.Errorf("%w after %v (%d bytes pending)", ErrReadTimeout, timeout, len(t.buf))
		}
	}
}

// FlushInput discards unread bytes, both buffered here and in the driver.
func (t *SerialTransport) FlushInput() error {
	t.buf = t.buf[:0]
	return t.port.ResetInputBuffer()
}

// FlushOutput waits until everything written has been transmitted.
func (t *SerialTransport) FlushOutput() error {
	return t.port.Drain()
}

// Close releases the port. Calling it again is a no-op.
func (t *SerialTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.port.Close()
}
