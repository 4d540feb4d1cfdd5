// Package events publishes order lifecycle notifications to Kafka.
package events

import (
	"context"
	"time"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	OrderPlaced    EventType = "order.placed"
	OrderCompleted EventType = "order.completed"
)

type OrderEvent struct {
	EventType   EventType          `json:"event_type"`
	OrderID     string             `json:"order_id"`
	BuyerID     string             `json:"buyer_id"`
	SellerID    string             `json:"seller_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Status      domain.OrderStatus `json:"status"`
	Items       []domain.OrderItem `json:"items"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func NewOrderEvent(t EventType, o *domain.Order) OrderEvent {
	return OrderEvent{
		EventType:   t,
		OrderID:     o.ID.String(),
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		Items:       o.Items,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers order events. Callers treat delivery as best effort.
type Publisher interface {
	Publish(ctx context.Context, t EventType, order *domain.Order) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, EventType, *domain.Order) error { return nil }

func (NopPublisher) Close() error { return nil }
