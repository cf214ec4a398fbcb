// Package kafka wraps the segmentio reader the notifier uses to consume
// the reminder topic fed by the outbox relay.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reminder envelopes are tiny JSON records, so the reader is tuned for
// latency over batching: a low MinBytes and a short MaxWait keep a due
// notice from sitting in the broker while a batch fills.
const (
	defaultMinBytes       = 1 << 10
	defaultMaxBytes       = 10 << 20
	defaultCommitInterval = time.Second
	defaultMaxWait        = 50 * time.Millisecond
)

type Config struct {
	Brokers        []string
	Topic          string
	GroupID        string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration // 0 = commit synchronously per message
	MaxWait        time.Duration
}

// Consumer reads reminder envelopes off a consumer group.
type Consumer struct {
	r *kafka.Reader
}

func NewConsumerFromConfig(c Config) *Consumer {
	if c.MinBytes <= 0 {
		c.MinBytes = defaultMinBytes
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = defaultMaxBytes
	}
	if c.CommitInterval <= 0 {
		c.CommitInterval = defaultCommitInterval
	}
	if c.MaxWait <= 0 {
		c.MaxWait = defaultMaxWait
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          c.Topic,
		MinBytes:       c.MinBytes,
		MaxBytes:       c.MaxBytes,
		CommitInterval: c.CommitInterval,
		MaxWait:        c.MaxWait,
	})

	return &Consumer{r: r}
}

type Message = kafka.Message

// Fetch blocks until a reminder message arrives or ctx is cancelled. The
// message is not committed; the caller acknowledges via Commit once it has
// been handled (or deemed poison).
func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m Message) error {
	return c.r.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.r.Close() }
