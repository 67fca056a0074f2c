package main

import (
	"strings"
	"sync"
	"time"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
	"github.com/skgsergio/bkp9151-toolkit/lib/config"
)

// simTransport answers a handful of queries the way a 9151 does.
type simTransport struct {
	mu      sync.Mutex
	pending []string
	writes  []string
	closed  bool
}

var simReplies = map[string]string{
	"*IDN?":      "BK PRECISION,9151,1.05,600123010\r\n",
	"MEAS:VOLT?": "12.0003\r\n",
	"MEAS:CURR?": "0.5001\r\n",
	"MEAS:POW?":  "6.0013\r\n",
	"VOLT?":      "12.000\r\n",
}

func (s *simTransport) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := strings.TrimRight(string(p), "\n")
	s.writes = append(s.writes, line)

	switch {
	case line == bkp9151.ErrorQueueQuery:
		s.pending = append(s.pending, "0,\"No error\"\r\n")
	case strings.Contains(line, "?"):
		s.pending = append(s.pending, simReplies[line])
	}
	return nil
}

func (s *simTransport) ReadLine(timeout time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return "", bkp9151.ErrReadTimeout
	}
	line := s.pending[0]
	s.pending = s.pending[1:]
	return line, nil
}

func (s *simTransport) FlushInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

func (s *simTransport) FlushOutput() error { return nil }

func (s *simTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *simTransport) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

// useSimulator points dialSession at an in-memory instrument for the
// duration of the test.
func useSimulator(t interface{ Cleanup(func()) }) *simTransport {
	sim := &simTransport{}

	prevCfg, prevDial := cfg, dialSession
	cfg = config.GetDefaultConfig()
	dialSession = func(port string) (*bkp9151.Session, error) {
		return bkp9151.Connect(sim, 0, sessionOptions(port)...)
	}
	t.Cleanup(func() {
		cfg, dialSession = prevCfg, prevDial
	})
	return sim
}
