package eventstream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []skafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaProducerWithWriter(fw)
	org := uuid.New()

	err := p.Publish(context.Background(), Envelope{
		Type:           "task.completed",
		OrganizationID: org,
		OccurredAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Payload:        map[string]string{"task_id": "t1"},
	})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, org.String(), string(msg.Key))
	assert.Equal(t, "task.completed", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "task.completed", decoded["type"])
	assert.Equal(t, map[string]any{"task_id": "t1"}, decoded["payload"])
}

func TestPublish_WriteError(t *testing.T) {
	p := NewKafkaProducerWithWriter(&fakeWriter{err: errors.New("broker unavailable")})
	err := p.Publish(context.Background(), Envelope{Type: "task.created"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task.created")
}

func TestPublish_MarshalError(t *testing.T) {
	p := NewKafkaProducerWithWriter(&fakeWriter{})
	err := p.Publish(context.Background(), Envelope{Type: "bad", Payload: make(chan int)})
	require.Error(t, err)
}
