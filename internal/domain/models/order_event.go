package models

// Order feed event types.
const (
	EventOrderCreated = "order.created"
	EventOrderTaken   = "order.taken"
)

// OrderEvent is one message on the order feed websocket. Created events carry
// the full order; taken events carry only the id of the order another rider
// won.
type OrderEvent struct {
	Type    string `json:"type"`
	Order   *Order `json:"order,omitempty"`
	OrderID string `json:"orderId,omitempty"`
}
