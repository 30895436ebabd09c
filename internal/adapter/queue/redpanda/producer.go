package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// Producer publishes resume processing tasks and implements domain.Queue.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the brokers and makes sure the topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, TopicProcessResume, 4, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", TopicProcessResume),
			slog.Any("error", err))
	}
	return &Producer{client: client}, nil
}

// EnqueueProcess publishes one processing task, keyed by resume id so records
// for the same resume stay ordered within a partition.
func (p *Producer) EnqueueProcess(ctx domain.Context, payload domain.ProcessTaskPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("op=queue.enqueue: %w", err)
	}
	record := &kgo.Record{
		Topic: TopicProcessResume,
		Key:   []byte(payload.ResumeID),
		Value: b,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("op=queue.enqueue: %w", err)
	}
	observability.ResumesEnqueuedTotal.Inc()
	slog.Info("resume processing task enqueued", slog.String("resume_id", payload.ResumeID))
	return nil
}

// Close flushes and releases the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}
