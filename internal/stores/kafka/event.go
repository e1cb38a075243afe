package kafka

import "time"

const (
	TopicOrderCompleted = `order-service.order-completed`
)

// OrderCompletedEvent is published after a checkout commits stock, so
// downstream consumers (fulfillment, notifications) can react.
type OrderCompletedEvent struct {
	OrderID       int64     `json:"order_id"`
	UserID        int64     `json:"user_id"`
	TotalAmount   string    `json:"total_amount"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}
