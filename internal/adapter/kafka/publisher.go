package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/benin-demographics-etl/internal/config"
	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// messageWriter is the subset of kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per table row to the configured topic.
// It is used as an additional table sink next to the CSV writer.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// RowMessage is the JSON value of a published row.
type RowMessage struct {
	Dataset string            `json:"dataset"`
	Row     map[string]string `json:"row"`
}

// WriteTable publishes every row of t in a single WriteMessages call.
func (p *Publisher) WriteTable(ctx context.Context, t domain.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	msgs, err := tableMessages(t, domain.Clock().Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("%w: publish %s: %v", domain.ErrTransport, t.Name, err)
	}
	p.metrics.MessagesPublished.Add(float64(len(msgs)))
	p.logger.Info("table published", "dataset", t.Name, "messages", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// tableMessages maps each row to a message keyed by the dataset and the
// row's identifying cells, e.g. "population.csv|Alibori".
func tableMessages(t domain.Table, producedAt time.Time) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, len(t.Rows))
	for i, row := range t.Rows {
		value := RowMessage{Dataset: t.Name, Row: make(map[string]string, len(t.Header))}
		for j, h := range t.Header {
			if j < len(row) {
				value.Row[h] = row[j]
			}
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("serialize %s row %d: %w", t.Name, i, err)
		}
		msgs[i] = kafkago.Message{
			Key:   []byte(rowKey(t.Name, t.Key(i))),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "dataset", Value: []byte(t.Name)},
				{Key: "produced_at", Value: []byte(producedAt.UTC().Format(time.RFC3339))},
			},
		}
	}
	return msgs, nil
}

func rowKey(dataset string, key []string) string {
	return dataset + "|" + strings.Join(key, "|")
}
