package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func testPublisher(w messageWriter) *Publisher {
	return &Publisher{
		writer:  w,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: observability.NewMetricsForTesting(),
	}
}

func TestTableMessages(t *testing.T) {
	now := time.Date(2025, 9, 21, 10, 0, 0, 0, time.UTC)
	tbl := domain.Table{
		Name:   "population_par_departement_benin.csv",
		Header: []string{"departement", "population_2010", "population_2020"},
		Rows:   [][]string{{"Alibori", "10", "12"}, {"Zou", "7", ""}},
	}

	msgs, err := tableMessages(tbl, now)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "population_par_departement_benin.csv|Alibori", string(msgs[0].Key))
	var value RowMessage
	require.NoError(t, json.Unmarshal(msgs[1].Value, &value))
	assert.Equal(t, RowMessage{
		Dataset: "population_par_departement_benin.csv",
		Row:     map[string]string{"departement": "Zou", "population_2010": "7", "population_2020": ""},
	}, value)

	require.Len(t, msgs[0].Headers, 2)
	assert.Equal(t, "dataset", msgs[0].Headers[0].Key)
	assert.Equal(t, "produced_at", msgs[0].Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msgs[0].Headers[1].Value)
}

func TestTableMessages_LongTableKey(t *testing.T) {
	tbl := domain.IndicatorTable("wb.csv", "v", []domain.IndicatorRecord{
		{CountryName: "Benin", CountryCode: "BEN", Year: 1999, Value: 1},
	})
	msgs, err := tableMessages(tbl, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "wb.csv|Benin|BEN|1999", string(msgs[0].Key))
}

func TestPublisher_WriteTable(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	w := &recordingWriter{}
	p := testPublisher(w)

	tbl := domain.Table{Name: "dhs.csv", Header: []string{"annee", "x"}, Rows: [][]string{{"2001", "1"}, {"2006", "2"}}}
	require.NoError(t, p.WriteTable(context.Background(), tbl))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "2025-01-02T03:04:05Z", string(w.msgs[0].Headers[1].Value))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.MessagesPublished))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_EmptyTable(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, testPublisher(w).WriteTable(context.Background(), domain.Table{Name: "x"}))
	assert.Empty(t, w.msgs)
}

func TestPublisher_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	err := testPublisher(w).WriteTable(context.Background(), domain.Table{Name: "x", Header: []string{"a"}, Rows: [][]string{{"1"}}})
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "leader not available")
}
