package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w)

	err := p.Publish(context.Background(), Outcome{
		DispatchID: "d-1",
		BusinessID: 3,
		Kind:       "new_sale",
		RecordID:   9,
		Selection:  "both",
		Status:     "partial",
		Channels:   []ChannelStatus{{Channel: "email", Attempted: true}, {Channel: "sms", Attempted: true, Succeeded: true}},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "3:d-1", string(w.msgs[0].Key))

	var decoded Outcome
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "partial", decoded.Status)
	assert.False(t, decoded.EmittedAt.IsZero())
	assert.Len(t, decoded.Channels, 2)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewKafkaPublisher(&fakeWriter{err: boom})

	err := p.Publish(context.Background(), Outcome{DispatchID: "d-1"})
	assert.True(t, errors.Is(err, boom))
}
