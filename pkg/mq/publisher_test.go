package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	published  []published
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if c.declareErr != nil {
		return c.declareErr
	}
	c.declared = append(c.declared, name+":"+kind)
	return nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublishReading(t *testing.T) {
	common.SetTestLoggerNop()

	ch := &fakeChannel{}
	p, err := NewPublisher(ch, "flow-meter.readings")
	require.NoError(t, err)
	assert.Equal(t, []string{"flow-meter.readings:topic"}, ch.declared)

	event := models.ReadingEvent{
		MeterCode:   "MED-001A",
		FlowLps:     2.5,
		LitersDelta: 0.3,
		LitersTotal: 120.3,
		Timestamp:   "2025-03-04 10:11:12",
	}
	require.NoError(t, p.PublishReading(context.Background(), event))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "flow-meter.readings", got.exchange)
	assert.Equal(t, "meter.MED-001A.reading", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var body models.ReadingEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, event, body)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()

	{
		ch := &fakeChannel{declareErr: errors.New("access refused")}
		_, err := NewPublisher(ch, "flow-meter.readings")
		assert.ErrorContains(t, err, "failed to declare exchange")
		assert.True(t, ch.closed)
	}

	{
		ch := &fakeChannel{publishErr: amqp.ErrClosed}
		p, err := NewPublisher(ch, "flow-meter.readings")
		require.NoError(t, err)
		err = p.PublishReading(context.Background(), models.ReadingEvent{MeterCode: "MED-001A"})
		assert.ErrorIs(t, err, amqp.ErrClosed)
	}
}
