package orders

import (
	"sync"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/internal/domain/types"
	"github.com/example/delivery-rider/pkg/metrics"
)

// Snapshot is the read-only view of both collections the UI observes.
type Snapshot struct {
	Pending []models.Order
	Active  []models.Order
}

type entry struct {
	order  models.Order
	status types.OrderStatus
}

// Store owns the two order collections. Every order has exactly one entry
// with exactly one status, so pending and active are disjoint by
// construction. All mutations are serialized under mu and subscribers are
// notified synchronously after each one.
//
// Entries keep their arrival position for their whole lifetime, which also
// means an order rolled back to pending reappears where it originally was.
type Store struct {
	mu       sync.Mutex
	entries  []*entry
	index    map[string]*entry
	watchers []func(Snapshot)
}

func NewStore() *Store {
	return &Store{
		index: map[string]*entry{},
	}
}

// Subscribe registers a synchronous observer of collection mutations.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Add appends a new pending order. Orders already known by id are ignored,
// the feed may deliver duplicates on reconnect.
func (s *Store) Add(order models.Order) bool {
	s.mu.Lock()
	if _, ok := s.index[order.OrderID]; ok {
		s.mu.Unlock()
		return false
	}
	e := &entry{order: order, status: types.OrderPending}
	s.entries = append(s.entries, e)
	s.index[order.OrderID] = e
	s.finishMutation("arrived")
	return true
}

// Pending returns the pending orders in arrival order.
func (s *Store) Pending() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(st types.OrderStatus) bool { return st == types.OrderPending })
}

// Active returns the in-delivery orders (confirmed or awaiting confirmation).
func (s *Store) Active() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(st types.OrderStatus) bool { return st.InDelivery() })
}

// Status returns the current status of an order, if present.
func (s *Store) Status(orderID string) (types.OrderStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[orderID]
	if !ok {
		return "", false
	}
	return e.status, true
}

// BeginAccept optimistically moves a pending order into delivery.
func (s *Store) BeginAccept(orderID string) error {
	s.mu.Lock()
	e, ok := s.index[orderID]
	if !ok {
		s.mu.Unlock()
		return types.ErrOrderNotFound
	}
	if e.status != types.OrderPending {
		s.mu.Unlock()
		return types.ErrOrderNotPending
	}
	e.status = types.OrderAcceptPending
	s.finishMutation("accept_optimistic")
	return nil
}

// ConfirmAccept finalizes an optimistic accept after the server confirmed it.
func (s *Store) ConfirmAccept(orderID string) {
	s.mu.Lock()
	e, ok := s.index[orderID]
	if !ok || e.status != types.OrderAcceptPending {
		s.mu.Unlock()
		return
	}
	e.status = types.OrderActive
	s.finishMutation("accept_confirmed")
}

// RestorePending rolls an optimistic accept back into the pending collection.
// Used when the accept could not be confirmed for technical reasons and the
// rider may retry.
func (s *Store) RestorePending(orderID string) {
	s.mu.Lock()
	e, ok := s.index[orderID]
	if !ok || e.status != types.OrderAcceptPending {
		s.mu.Unlock()
		return
	}
	e.status = types.OrderPending
	s.finishMutation("accept_restored")
}

// Remove deletes the order from whichever collection holds it. Removing an
// unknown order is a no-op.
func (s *Store) Remove(orderID string) bool {
	s.mu.Lock()
	if _, ok := s.index[orderID]; !ok {
		s.mu.Unlock()
		return false
	}
	s.removeLocked(orderID)
	s.finishMutation("removed")
	return true
}

// RemovePending deletes the order only while it is still pending. Used for
// "taken by another rider" feed events, which must not touch an order this
// rider is already delivering.
func (s *Store) RemovePending(orderID string) bool {
	s.mu.Lock()
	e, ok := s.index[orderID]
	if !ok || e.status != types.OrderPending {
		s.mu.Unlock()
		return false
	}
	s.removeLocked(orderID)
	s.finishMutation("removed_taken")
	return true
}

func (s *Store) removeLocked(orderID string) {
	delete(s.index, orderID)
	for i, e := range s.entries {
		if e.order.OrderID == orderID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *Store) collect(match func(types.OrderStatus) bool) []models.Order {
	out := make([]models.Order, 0, len(s.entries))
	for _, e := range s.entries {
		if match(e.status) {
			out = append(out, e.order)
		}
	}
	return out
}

// finishMutation publishes metrics and notifies subscribers. Called with mu
// held; it releases it.
func (s *Store) finishMutation(transition string) {
	snap := Snapshot{
		Pending: s.collect(func(st types.OrderStatus) bool { return st == types.OrderPending }),
		Active:  s.collect(func(st types.OrderStatus) bool { return st.InDelivery() }),
	}
	watchers := make([]func(Snapshot), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	metrics.RecordOrderTransition(transition)
	metrics.SetOrderGauges(len(snap.Pending), len(snap.Active))

	for _, fn := range watchers {
		fn(snap)
	}
}
