package statusfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	// DefaultStream is the Redis stream the execution platform writes
	// status reports to.
	DefaultStream = "secflow:status-reports"
	// DefaultGroup is the consumer group name of the sync workers.
	DefaultGroup = "secflow-status-sync"

	payloadField = "payload"
	readBlock    = time.Second
	readCount    = 16
	retryBackoff = time.Second
	connTimeout  = 5 * time.Second
)

// ConsumerConfig carries the Redis connection and stream settings.
type ConsumerConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

// Consumer reads status reports from a Redis stream through a consumer group
// and feeds them to a Syncer. Malformed and state-machine-violating reports
// are acknowledged and dropped; storage failures leave the entry pending for
// redelivery.
type Consumer struct {
	config ConsumerConfig
	syncer *Syncer
	logger *slog.Logger

	client redis.UniversalClient
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewConsumer creates a new stream consumer.
func NewConsumer(config ConsumerConfig, syncer *Syncer, logger *slog.Logger) *Consumer {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	if config.Stream == "" {
		config.Stream = DefaultStream
	}

	if config.Group == "" {
		config.Group = DefaultGroup
	}

	if config.Consumer == "" {
		config.Consumer = DefaultGroup + "-1"
	}

	return &Consumer{
		config: config,
		syncer: syncer,
		stopCh: make(chan struct{}),
		logger: logger.With(
			"module", "statusfeed_consumer",
			"stream", config.Stream,
			"group", config.Group,
		),
	}
}

// Start connects to Redis, ensures the consumer group exists and begins
// consuming until Stop is called or the context ends.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Starting status feed consumer")

	if err := c.initializeClient(ctx); err != nil {
		return fmt.Errorf("failed to initialize redis client: %w", err)
	}

	c.wg.Add(1)

	go c.consume(ctx)

	return nil
}

func (c *Consumer) initializeClient(ctx context.Context) error {
	c.client = redis.NewClient(&redis.Options{
		Addr:     c.config.Addr,
		Password: c.config.Password,
		DB:       c.config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connTimeout)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	err := c.client.XGroupCreateMkStream(ctx, c.config.Stream, c.config.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.InfoContext(ctx, "Connected to Redis", "addr", c.config.Addr, "db", c.config.DB)

	return nil
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Status feed consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping status feed consumer")

			return
		default:
			if err := c.readBatch(ctx); err != nil {
				c.logger.ErrorContext(ctx, "Error reading status reports", "error", err)
				time.Sleep(retryBackoff)
			}
		}
	}
}

func (c *Consumer) readBatch(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.config.Group,
		Consumer: c.config.Consumer,
		Streams:  []string{c.config.Stream, ">"},
		Count:    readCount,
		Block:    readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			c.handleMessage(ctx, message)
		}
	}

	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, message redis.XMessage) {
	payload, ok := message.Values[payloadField].(string)
	if !ok {
		c.logger.WarnContext(ctx, "Dropping stream entry without payload field", "entry_id", message.ID)
		c.ack(ctx, message.ID)

		return
	}

	err := c.syncer.Apply(ctx, []byte(payload))

	switch {
	case err == nil:
		c.ack(ctx, message.ID)
	case IsInvalidReport(err) || IsIllegalTransition(err):
		// Poison entries never become valid; redelivering them would
		// wedge the group.
		c.logger.WarnContext(ctx, "Dropping rejected status report", "entry_id", message.ID, "error", err)
		c.ack(ctx, message.ID)
	default:
		c.logger.ErrorContext(ctx, "Failed to apply status report, leaving pending",
			"entry_id", message.ID, "error", err)
	}
}

func (c *Consumer) ack(ctx context.Context, entryID string) {
	if err := c.client.XAck(ctx, c.config.Stream, c.config.Group, entryID).Err(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to ack stream entry", "entry_id", entryID, "error", err)
	}
}

// Stop halts consumption and closes the Redis connection.
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Stopping status feed consumer")

	close(c.stopCh)
	c.wg.Wait()

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
