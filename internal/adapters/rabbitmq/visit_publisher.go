package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"storefront-service/internal/constants"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// Publisher - то, что адаптеру нужно от rabbitmq_producer.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// VisitPublisher реализует VisitRecorderPort публикацией события в RabbitMQ.
type VisitPublisher struct {
	producer Publisher
}

var _ port.VisitRecorderPort = (*VisitPublisher)(nil)

func NewVisitPublisher(producer Publisher) (*VisitPublisher, error) {
	if producer == nil {
		return nil, errors.New("rabbitmq adapter: producer cannot be nil")
	}
	return &VisitPublisher{producer: producer}, nil
}

type visitEvent struct {
	ItemID    int       `json:"item_id"`
	ItemType  string    `json:"item_type"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *VisitPublisher) RecordVisit(ctx context.Context, visit domain.Visit) error {
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "VisitPublisher",
		"item_id":   visit.ItemID,
		"item_type": visit.ItemType,
	})

	body, err := json.Marshal(visitEvent{ItemID: visit.ItemID, ItemType: visit.ItemType, Timestamp: visit.Timestamp})
	if err != nil {
		adapterLogger.Error("Failed to marshal visit event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to marshal visit: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Transient,
		Timestamp:    visit.Timestamp,
		Type:         constants.EventTypeVisitRecorded,
		Headers: amqp.Table{
			"x-event-type":    constants.EventTypeVisitRecorded,
			"x-event-version": constants.EventVersionVisitRecorded,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, constants.RoutingKeyVisitRecorded, msg); err != nil {
		adapterLogger.Error("Failed to publish visit event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish visit: %w", err)
	}

	adapterLogger.Debug("Visit event published", nil)
	return nil
}
