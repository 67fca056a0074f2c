// Package bkp9151 drives a BK Precision 9151 power supply over its SCPI
// serial interface.
//
// Every operation validates its arguments before anything is written, so a
// rejected value never reaches the instrument. Each command is then sent
// with the same exchange: flush, write the line, wait the settle delay,
// read the reply for queries, and finally query SYSTem:ERRor? and read the
// error queue. The error queue reply is available from LastErrorReport or
// WithErrorReportHandler; it never turns a call into a failure.
//
// Example usage:
//
//	s, err := bkp9151.Dial(bkp9151.SerialConfig{
//	    Device:      "/dev/ttyUSB0",
//	    BaudRate:    9600,
//	    ReadTimeout: 3 * time.Second,
//	}, bkp9151.DefaultSettleDelay)
//	if err != nil {
//	    if errors.Is(err, bkp9151.ErrDeviceBusy) {
//	        log.Fatal("port is in use by another program")
//	    }
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	if err := s.SetCurrent(500); err != nil {
//	    log.Fatal(err)
//	}
//	id, err := s.Identify()
//
// A Session is not safe for concurrent use.
package bkp9151
