package bkp9151

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Observer is notified after every command, successful or not. Commands
// rejected before any I/O, because the session is closed or an argument is
// invalid, are reported with a zero elapsed time and an empty ErrorReport.
type Observer interface {
	ObserveCommand(cmd Command, elapsed time.Duration, report ErrorReport, err error)
}

// Session drives one instrument over an exclusively owned Transport.
//
// A Session does no locking. Only one command may be in flight at a time;
// callers sharing a Session between goroutines must serialize access.
type Session struct {
	transport   Transport
	settleDelay time.Duration
	readTimeout time.Duration

	log       logrus.FieldLogger
	observer  Observer
	onReport  func(Command, ErrorReport)
	sleep     func(time.Duration)
	closed    bool
	lastError ErrorReport
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger logs every round-trip at debug level.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithReadTimeout sets the timeout passed to Transport.ReadLine.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithObserver registers a hook called after every command.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// WithErrorReportHandler receives the error queue reply read after each
// command. The report never changes the command's result.
func WithErrorReportHandler(fn func(Command, ErrorReport)) Option {
	return func(s *Session) {
		s.onReport = fn
	}
}

// Connect wraps an open transport. settleDelay is the fixed wait between
// writing a line and reading its reply.
func Connect(t Transport, settleDelay time.Duration, opts ...Option) (*Session, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: no transport", ErrConnect)
	}
	if o, ok := t.(interface{ IsOpen() bool }); ok && !o.IsOpen() {
		return nil, fmt.Errorf("%w: transport is closed", ErrConnect)
	}
	if settleDelay < 0 {
		return nil, &ParameterError{Op: "Connect", Param: "settle delay", Value: settleDelay, Reason: "must not be negative"}
	}

	s := &Session{
		transport:   t,
		settleDelay: settleDelay,
		readTimeout: DefaultReadTimeout,
		log:         discardLogger(),
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dial opens the serial port described by cfg and connects a session to it.
func Dial(cfg SerialConfig, settleDelay time.Duration, opts ...Option) (*Session, error) {
	t, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithReadTimeout(cfg.ReadTimeout)}, opts...)
	s, err := Connect(t, settleDelay, opts...)
	if err != nil {
		t.Close()
		return nil, err
	}
	return s, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SettleDelay returns the configured settle delay.
func (s *Session) SettleDelay() time.Duration { return s.settleDelay }

// LastErrorReport returns the error queue reply read after the most recent
// command.
func (s *Session) LastErrorReport() ErrorReport { return s.lastError }

// Close releases the transport. Later calls are no-ops; every other method
// fails with ErrSessionClosed afterwards.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.transport.Close(); err != nil {
		return &TransportError{Op: "Close", Stage: "close", Err: err}
	}
	return nil
}

// Execute performs one full exchange: flush, write cmd, settle, read the
// reply if cmd is a query, then query the error queue. The error queue
// reply is recorded but does not affect the result.
func (s *Session) Execute(cmd Command) (Reply, error) {
	if s.closed {
		return Reply{}, s.reject(cmd, fmt.Errorf("%s: %w", cmd.Op(), ErrSessionClosed))
	}

	start := time.Now()
	reply, report, err := s.roundTrip(cmd)
	elapsed := time.Since(start)

	entry := s.log.WithFields(logrus.Fields{
		"op":      cmd.Op(),
		"command": cmd.String(),
		"elapsed": elapsed,
	})
	if err != nil {
		entry.WithError(err).Debug("command failed")
	} else {
		entry.WithFields(logrus.Fields{
			"reply":        reply.String(),
			"error_report": report.Raw,
		}).Debug("command done")
	}

	if s.observer != nil {
		s.observer.ObserveCommand(cmd, elapsed, report, err)
	}
	return reply, err
}

func (s *Session) roundTrip(cmd Command) (Reply, ErrorReport, error) {
	op := cmd.Op()

	// Drop anything stale, such as a late error queue reply from the
	// previous call.
	if err := s.transport.FlushInput(); err != nil {
		return Reply{}, ErrorReport{}, &TransportError{Op: op, Stage: "flush input", Err: err}
	}
	if err := s.transport.FlushOutput(); err != nil {
		return Reply{}, ErrorReport{}, &TransportError{Op: op, Stage: "flush output", Err: err}
	}

	reply, err := s.exchange(op, cmd.String(), cmd.IsQuery())
	var readErr error
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) || te.Stage != "read" {
			return Reply{}, ErrorReport{}, err
		}
		// An unanswered command still gets its error queue read, that is
		// where the instrument explains what went wrong.
		readErr = err
	}

	trailer, err := s.exchange(op, ErrorQueueQuery, true)
	if err != nil {
		if readErr != nil {
			return Reply{}, ErrorReport{}, readErr
		}
		return Reply{}, ErrorReport{}, err
	}

	report, _ := ParseErrorReport(trailer.String())
	s.lastError = report
	if s.onReport != nil {
		s.onReport(cmd, report)
	}

	if readErr != nil {
		return Reply{}, report, readErr
	}
	return reply, report, nil
}

func (s *Session) exchange(op, text string, expectReply bool) (Reply, error) {
	if err := s.transport.Write([]byte(text + Terminator)); err != nil {
		return Reply{}, &TransportError{Op: op, Stage: "write", Err: err}
	}

	s.sleep(s.settleDelay)

	if err := s.transport.FlushOutput(); err != nil {
		return Reply{}, &TransportError{Op: op, Stage: "flush output", Err: err}
	}

	if !expectReply {
		return Reply{}, nil
	}

	line, err := s.transport.ReadLine(s.readTimeout)
	if err != nil {
		return Reply{}, &TransportError{Op: op, Stage: "read", Err: err}
	}
	return newReply(line), nil
}

// apply runs a setter whose command was just encoded.
func (s *Session) apply(cmd Command, err error) error {
	_, err = s.request(cmd, err)
	return err
}

// request runs an encoded command and returns its reply.
func (s *Session) request(cmd Command, err error) (Reply, error) {
	var pe *ParameterError
	if cmd.op == "" && errors.As(err, &pe) {
		cmd = Command{op: pe.Op}
	}
	if s.closed {
		err = fmt.Errorf("%s: %w", cmd.Op(), ErrSessionClosed)
	}
	if err != nil {
		return Reply{}, s.reject(cmd, err)
	}
	return s.Execute(cmd)
}

// reject reports a command that never reached the transport.
func (s *Session) reject(cmd Command, err error) error {
	s.log.WithField("op", cmd.Op()).WithError(err).Debug("command rejected")
	if s.observer != nil {
		s.observer.ObserveCommand(cmd, 0, ErrorReport{}, err)
	}
	return err
}

// Send writes raw SCPI text using the same exchange as every other
// operation.
func (s *Session) Send(text string) (Reply, error) {
	return s.request(EncodeRaw(text))
}
