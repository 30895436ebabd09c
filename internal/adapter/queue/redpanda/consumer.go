package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// Handler processes one resume task. Pipeline failures are recorded on the
// resume row by the handler itself; a returned error means infrastructure
// trouble and is only logged; the task is not redelivered.
type Handler func(ctx context.Context, payload domain.ProcessTaskPayload) error

// Consumer polls the processing topic and dispatches tasks to a bounded
// worker pool. The pool size is the backpressure knob: at most maxConcurrency
// pipelines run at once per worker process.
type Consumer struct {
	client         *kgo.Client
	handler        Handler
	maxConcurrency int
}

// NewConsumer joins the consumer group for the processing topic.
func NewConsumer(brokers []string, groupID string, maxConcurrency int, handler Handler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(TopicProcessResume),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Consumer{client: client, handler: handler, maxConcurrency: maxConcurrency}, nil
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("worker consuming", slog.String("topic", TopicProcessResume), slog.Int("max_concurrency", c.maxConcurrency))
	sem := make(chan struct{}, c.maxConcurrency)
	var wg sync.WaitGroup
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			wg.Wait()
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("fetch error", slog.String("topic", topic), slog.Int("partition", int(partition)), slog.Any("error", err))
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			sem <- struct{}{}
			wg.Add(1)
			go func(rec *kgo.Record) {
				defer func() { <-sem; wg.Done() }()
				c.handleRecord(ctx, rec)
			}(rec)
		})
	}
}

func (c *Consumer) handleRecord(ctx context.Context, rec *kgo.Record) {
	tracer := otel.Tracer("queue.worker")
	ctx, span := tracer.Start(ctx, "ProcessResumeTask")
	defer span.End()

	// One poisoned document must not take down the worker pool.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task handler panicked", slog.Any("panic", r))
		}
	}()

	var payload domain.ProcessTaskPayload
	if err := json.Unmarshal(rec.Value, &payload); err != nil {
		slog.Error("malformed task payload dropped", slog.Any("error", err))
		return
	}
	if err := c.handler(ctx, payload); err != nil {
		slog.Error("task handler failed", slog.String("resume_id", payload.ResumeID), slog.Any("error", err))
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
