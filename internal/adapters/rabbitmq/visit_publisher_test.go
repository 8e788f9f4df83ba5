package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront-service/internal/constants"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	routingKey  string
	msg         amqp.Publishing
	hasDeadline bool
	err         error
}

func (f *fakePublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	f.routingKey = routingKey
	f.msg = msg
	_, f.hasDeadline = ctx.Deadline()
	return f.err
}

func TestVisitPublisher_RecordVisit(t *testing.T) {
	producer := &fakePublisher{}
	publisher, err := NewVisitPublisher(producer)
	require.NoError(t, err)

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-9")
	require.NoError(t, publisher.RecordVisit(ctx, domain.Visit{ItemID: 12, ItemType: "product", Timestamp: ts}))

	assert.Equal(t, constants.RoutingKeyVisitRecorded, producer.routingKey)
	assert.True(t, producer.hasDeadline)
	assert.Equal(t, "trace-9", producer.msg.Headers["x-trace-id"])
	assert.Equal(t, constants.EventVersionVisitRecorded, producer.msg.Headers["x-event-version"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(producer.msg.Body, &body))
	assert.EqualValues(t, 12, body["item_id"])
	assert.Equal(t, "2024-02-03T04:05:06Z", body["timestamp"])
}

func TestVisitPublisher_PublishError(t *testing.T) {
	publisher, err := NewVisitPublisher(&fakePublisher{err: errors.New("channel closed")})
	require.NoError(t, err)

	err = publisher.RecordVisit(context.Background(), domain.Visit{ItemID: 1})
	assert.ErrorContains(t, err, "channel closed")
}

func TestNewVisitPublisher_NilProducer(t *testing.T) {
	_, err := NewVisitPublisher(nil)
	assert.Error(t, err)
}

type capturingLogger struct {
	msgs   []string
	fields []port.Fields
	errs   []error
}

func (c *capturingLogger) record(msg string, err error, fields port.Fields) {
	c.msgs = append(c.msgs, msg)
	c.errs = append(c.errs, err)
	c.fields = append(c.fields, fields)
}

func (c *capturingLogger) Info(msg string, fields port.Fields)  { c.record(msg, nil, fields) }
func (c *capturingLogger) Warn(msg string, fields port.Fields)  { c.record(msg, nil, fields) }
func (c *capturingLogger) Debug(msg string, fields port.Fields) { c.record(msg, nil, fields) }
func (c *capturingLogger) Error(msg string, err error, fields port.Fields) {
	c.record(msg, err, fields)
}
func (c *capturingLogger) WithFields(port.Fields) port.LoggerPort { return c }

func TestPkgLoggerBridge(t *testing.T) {
	internal := &capturingLogger{}
	bridge := NewPkgLoggerBridge(internal)

	bridge.Debug("Declaring exchange", "name", "storefront.events", "type", "topic", 42, "skipped", "dangling")
	bridge.Error(errors.New("boom"), "Producer: error closing channel")

	require.Len(t, internal.msgs, 2)
	assert.Equal(t, port.Fields{"name": "storefront.events", "type": "topic"}, internal.fields[0])
	assert.EqualError(t, internal.errs[1], "boom")
}
