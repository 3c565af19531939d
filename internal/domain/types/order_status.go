package types

// OrderStatus is the client-side lifecycle state of a single order.
//
// Pending        -> order offered to the rider, waiting for a decision
// AcceptPending  -> accept applied optimistically, waiting for the server
// Active         -> accept confirmed, delivery in progress
//
// An order holds exactly one status at a time, which is what keeps the
// pending and active collections disjoint.
type OrderStatus string

const (
	OrderPending       OrderStatus = "PENDING"
	OrderAcceptPending OrderStatus = "ACCEPT_PENDING"
	OrderActive        OrderStatus = "ACTIVE"
)

func (s OrderStatus) String() string {
	return string(s)
}

// InDelivery reports whether the status counts as the active collection.
func (s OrderStatus) InDelivery() bool {
	return s == OrderAcceptPending || s == OrderActive
}
