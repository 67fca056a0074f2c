package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
	"github.com/skgsergio/bkp9151-toolkit/lib/telemetry"
)

var (
	intervalFlag  time.Duration
	pollJSONFlag  bool
	pollRedisFlag bool
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Continuously poll measurements from the device",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var publisher *telemetry.RedisPublisher
		if pollRedisFlag {
			p, err := telemetry.NewRedisPublisher(ctx, telemetry.RedisOptions{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				Channel:  cfg.Redis.Channel,
				History:  cfg.Redis.History,
			}, log)
			exitOnError("connecting to redis", err)
			defer p.Close()
			publisher = p
		}

		device := connectDevice()
		defer device.Close()
		executePoll(ctx, device, intervalFlag, pollJSONFlag, publisher)
	},
}

func init() {
	pollCmd.Flags().DurationVarP(&intervalFlag, "interval", "i", time.Second, "Polling interval")
	pollCmd.Flags().BoolVarP(&pollJSONFlag, "json", "j", false, "Output in JSON format")
	pollCmd.Flags().BoolVarP(&pollRedisFlag, "redis", "r", false, "Publish every measurement to the configured Redis channel")
	rootCmd.AddCommand(pollCmd)
}

// executePoll continuously polls measurements until ctx is cancelled
func executePoll(ctx context.Context, device *bkp9151.Session, interval time.Duration, jsonOutput bool, publisher *telemetry.RedisPublisher) {
	// Each measurement is three commands plus their error queue queries
	if minimum := 6 * device.SettleDelay(); interval < minimum {
		fmt.Fprintf(os.Stderr, "Interval raised to %v, the time one measurement takes\n", minimum)
		interval = minimum
	}

	if !jsonOutput {
		fmt.Printf("Polling measurements every %v (press Ctrl+C to stop)...\n\n", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Get first measurement immediately
	pollOnce(ctx, device, jsonOutput, publisher)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollOnce(ctx, device, jsonOutput, publisher)
		}
	}
}

// pollOnce gets, prints and optionally publishes a single measurement
func pollOnce(ctx context.Context, device *bkp9151.Session, jsonOutput bool, publisher *telemetry.RedisPublisher) {
	m, err := device.Measure()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting measurement: %v\n", err)
		return
	}

	if publisher != nil {
		if err := publisher.Publish(ctx, cfg.Serial.Port, m); err != nil {
			log.WithError(err).Warn("failed to publish measurement")
		}
	}

	if jsonOutput {
		jsonStr, err := m.JSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting JSON: %v\n", err)
			return
		}
		fmt.Println(jsonStr)
	} else {
		// Print a compact one-line format for polling
		timestamp := m.Timestamp.Format("15:04:05")
		fmt.Printf("[%s] %s\n", timestamp, m.ShortString())
	}
}
