package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
	"github.com/skgsergio/bkp9151-toolkit/lib/config"
	"github.com/skgsergio/bkp9151-toolkit/lib/monitor"
)

var (
	// Global flags
	portFlag        string
	baudFlag        int
	configFlag      string
	settleDelayFlag time.Duration
	logLevelFlag    string
)

var (
	cfg *config.Config
	log = logrus.New()

	metricsOnce sync.Once
	metrics     *monitor.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "bkp9151-toolkit",
	Short: "BK Precision 9151 Toolkit - programmable power supply interface",
	Long: `BK Precision 9151 Toolkit drives a BK Precision 9151 power supply over
its serial SCPI interface. You can read measurements, change setpoints,
program list sequences, poll the output continuously and send raw SCPI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
}

func init() {
	// Disable the default help command (use --help flag instead)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Global flags (available to all commands)
	rootCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "/dev/ttyUSB0", "Serial port device path")
	rootCmd.PersistentFlags().IntVarP(&baudFlag, "baud", "b", bkp9151.DefaultBaudRate, "Serial baud rate")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().DurationVar(&settleDelayFlag, "settle-delay", bkp9151.DefaultSettleDelay, "Wait between writing a command and reading its reply")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings merges the config file, environment and explicit flags.
func loadSettings(cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadConfig(configFlag)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = portFlag
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = baudFlag
	}
	if flags.Changed("settle-delay") {
		cfg.Serial.SettleDelay = settleDelayFlag
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogger(log, cfg.Log)
	return nil
}

func setupLogger(l *logrus.Logger, lc config.LogConfig) {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if lc.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	var out io.Writer = os.Stderr
	switch lc.Output {
	case "stdout":
		out = os.Stdout
	case "file":
		out = &lumberjack.Logger{
			Filename: lc.FilePath,
			MaxSize:  lc.MaxSize,
			MaxAge:   lc.MaxAge,
			Compress: true,
		}
	}
	l.SetOutput(out)
}

// setupMetrics creates the metrics once per process when they are enabled
// and returns nil otherwise. The handler is mounted on mux, or on its own
// listener when mux is nil.
func setupMetrics(mux *http.ServeMux) *monitor.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}

	metricsOnce.Do(func() {
		m, err := monitor.NewMetrics(nil)
		if err != nil {
			log.WithError(err).Error("failed to register metrics")
			return
		}
		metrics = m

		if mux != nil {
			mux.Handle("/metrics", m.Handler())
			return
		}

		own := http.NewServeMux()
		own.Handle("/metrics", m.Handler())
		go func() {
			log.WithField("listen", cfg.Metrics.Listen).Info("serving metrics")
			if err := http.ListenAndServe(cfg.Metrics.Listen, own); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	})
	return metrics
}

// sessionOptions wires logging, metrics and the error queue warning into a
// new session.
func sessionOptions(port string) []bkp9151.Option {
	opts := []bkp9151.Option{
		bkp9151.WithLogger(log.WithField("port", port)),
		bkp9151.WithErrorReportHandler(warnDeviceError),
	}
	if m := setupMetrics(nil); m != nil {
		opts = append(opts, bkp9151.WithObserver(m))
	}
	return opts
}

// warnDeviceError logs error queue entries other than "0, No error".
func warnDeviceError(cmd bkp9151.Command, report bkp9151.ErrorReport) {
	if report.OK() {
		return
	}
	entry := log.WithFields(logrus.Fields{
		"op":      cmd.Op(),
		"command": cmd.String(),
	})
	if report.Raw == "" {
		entry.Warn("instrument returned no error queue reply")
		return
	}
	entry.WithField("error", report.String()).Warn("instrument reported an error")
}

// dialSession opens a session on port using the loaded serial settings.
var dialSession = func(port string) (*bkp9151.Session, error) {
	sc := cfg.Session()
	sc.Device = port
	return bkp9151.Dial(sc, cfg.Serial.SettleDelay, sessionOptions(port)...)
}

// connectDevice connects to the power supply on the configured port
func connectDevice() *bkp9151.Session {
	fmt.Fprintf(os.Stderr, "Connecting to BK Precision 9151 on %s...\n", cfg.Serial.Port)
	session, err := dialSession(cfg.Serial.Port)
	if err != nil {
		if errors.Is(err, bkp9151.ErrDeviceBusy) {
			fmt.Fprintf(os.Stderr, "Error: %s is in use by another program. Close it and try again.\n", cfg.Serial.Port)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Connected successfully!\n")
	return session
}

// exitOnError prints err and exits with status 1.
func exitOnError(what string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	os.Exit(1)
}
