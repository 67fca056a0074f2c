// Package telemetry publishes measurements to Redis.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

// redisClient is the subset of redis.Cmdable the publisher uses.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

// Sample is the payload published for every measurement.
type Sample struct {
	Device string `json:"device"`
	*bkp9151.Measurement
}

// RedisPublisher sends each sample to a Pub/Sub channel and keeps the most
// recent ones in a list named "<channel>:<device>:history".
type RedisPublisher struct {
	client  redisClient
	closer  func() error
	channel string
	history int64
	log     logrus.FieldLogger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	History  int64 // 0 disables the history list
}

// NewRedisPublisher connects and pings the server.
func NewRedisPublisher(ctx context.Context, opts RedisOptions, log logrus.FieldLogger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	log.WithField("addr", opts.Addr).Info("connected to redis")

	p := newRedisPublisher(client, opts.Channel, opts.History, log)
	p.closer = client.Close
	return p, nil
}

func newRedisPublisher(client redisClient, channel string, history int64, log logrus.FieldLogger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		history: history,
		log:     log,
	}
}

// HistoryKey returns the list holding recent samples for device.
func (p *RedisPublisher) HistoryKey(device string) string {
	return fmt.Sprintf("%s:%s:history", p.channel, device)
}

// Publish sends one sample. A failure to update the history list is only
// logged.
func (p *RedisPublisher) Publish(ctx context.Context, device string, m *bkp9151.Measurement) error {
	data, err := json.Marshal(Sample{Device: device, Measurement: m})
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish sample: %w", err)
	}

	if p.history <= 0 {
		return nil
	}

	key := p.HistoryKey(device)
	if err := p.client.LPush(ctx, key, data).Err(); err != nil {
		p.log.WithError(err).WithField("key", key).Warn("failed to store sample history")
		return nil
	}
	if err := p.client.LTrim(ctx, key, 0, p.history-1).Err(); err != nil {
		p.log.WithError(err).WithField("key", key).Warn("failed to trim sample history")
	}

	return nil
}

// Close releases the Redis client when the publisher owns it.
func (p *RedisPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
