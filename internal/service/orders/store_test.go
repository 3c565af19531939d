package orders

import (
	"testing"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/internal/domain/types"
)

func order(id string) models.Order {
	return models.Order{
		OrderID: id,
		Rider:   "kim@example.com",
		Start:   models.GeoPoint{Latitude: 37.5, Longitude: 127.0},
		End:     models.GeoPoint{Latitude: 37.6, Longitude: 127.1},
		Price:   9000,
	}
}

func ids(orders []models.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.OrderID)
	}
	return out
}

func assertDisjoint(t *testing.T, s *Store) {
	t.Helper()
	active := map[string]bool{}
	for _, o := range s.Active() {
		active[o.OrderID] = true
	}
	for _, o := range s.Pending() {
		if active[o.OrderID] {
			t.Fatalf("order %s is in both pending and active", o.OrderID)
		}
	}
}

func TestStore_AddKeepsArrivalOrder(t *testing.T) {
	s := NewStore()
	s.Add(order("o1"))
	s.Add(order("o2"))
	s.Add(order("o3"))

	got := ids(s.Pending())
	want := []string{"o1", "o2", "o3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pending order mismatch: got %v want %v", got, want)
		}
	}
}

func TestStore_AddIgnoresDuplicates(t *testing.T) {
	s := NewStore()
	if !s.Add(order("o1")) {
		t.Fatalf("first add should succeed")
	}
	if s.Add(order("o1")) {
		t.Fatalf("duplicate add should be ignored")
	}
	if len(s.Pending()) != 1 {
		t.Fatalf("expected a single pending order")
	}
}

func TestStore_AcceptTransitions(t *testing.T) {
	s := NewStore()
	s.Add(order("o1"))

	if err := s.BeginAccept("o1"); err != nil {
		t.Fatalf("begin accept failed: %v", err)
	}
	assertDisjoint(t, s)
	if len(s.Pending()) != 0 || len(s.Active()) != 1 {
		t.Fatalf("optimistic accept should move the order to active")
	}

	// accepting again while in flight is invalid
	if err := s.BeginAccept("o1"); err != types.ErrOrderNotPending {
		t.Fatalf("got %v, want ErrOrderNotPending", err)
	}

	s.ConfirmAccept("o1")
	if st, _ := s.Status("o1"); st != types.OrderActive {
		t.Fatalf("expected ACTIVE after confirmation, got %s", st)
	}
	assertDisjoint(t, s)
}

func TestStore_BeginAcceptUnknownOrder(t *testing.T) {
	s := NewStore()
	if err := s.BeginAccept("nope"); err != types.ErrOrderNotFound {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
}

func TestStore_RestorePendingKeepsArrivalPosition(t *testing.T) {
	s := NewStore()
	s.Add(order("o1"))
	s.Add(order("o2"))
	s.Add(order("o3"))

	if err := s.BeginAccept("o2"); err != nil {
		t.Fatalf("begin accept failed: %v", err)
	}
	s.RestorePending("o2")

	got := ids(s.Pending())
	want := []string{"o1", "o2", "o3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("restored order lost its position: got %v want %v", got, want)
		}
	}
	assertDisjoint(t, s)
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Add(order("o1"))

	if !s.Remove("o1") {
		t.Fatalf("first remove should report removal")
	}
	if s.Remove("o1") {
		t.Fatalf("second remove should be a no-op")
	}
	if s.Remove("never-existed") {
		t.Fatalf("removing an unknown order should be a no-op")
	}
	if len(s.Pending()) != 0 || len(s.Active()) != 0 {
		t.Fatalf("collections should be empty")
	}
}

func TestStore_RemovePendingSparesDeliveries(t *testing.T) {
	s := NewStore()
	s.Add(order("o1"))
	s.Add(order("o2"))
	s.BeginAccept("o1")

	if s.RemovePending("o1") {
		t.Fatalf("an order in delivery must not be removed by a taken event")
	}
	if !s.RemovePending("o2") {
		t.Fatalf("a pending order should be removed by a taken event")
	}
	if len(s.Active()) != 1 || len(s.Pending()) != 0 {
		t.Fatalf("unexpected state after taken events")
	}
}

func TestStore_DisjointnessOverMixedSequence(t *testing.T) {
	s := NewStore()

	steps := []func(){
		func() { s.Add(order("o1")) },
		func() { s.Add(order("o2")) },
		func() { s.BeginAccept("o1") },
		func() { s.Add(order("o3")) },
		func() { s.RestorePending("o1") },
		func() { s.BeginAccept("o2") },
		func() { s.ConfirmAccept("o2") },
		func() { s.Remove("o3") },
		func() { s.BeginAccept("o1") },
		func() { s.Remove("o1") },
	}
	for _, step := range steps {
		step()
		assertDisjoint(t, s)
	}

	if got := ids(s.Active()); len(got) != 1 || got[0] != "o2" {
		t.Fatalf("expected only o2 active, got %v", got)
	}
}

func TestStore_SubscribersSeeSnapshots(t *testing.T) {
	s := NewStore()

	var last Snapshot
	var count int
	s.Subscribe(func(snap Snapshot) {
		last = snap
		count++
	})

	s.Add(order("o1"))
	s.BeginAccept("o1")

	if count != 2 {
		t.Fatalf("expected 2 notifications, got %d", count)
	}
	if len(last.Pending) != 0 || len(last.Active) != 1 {
		t.Fatalf("unexpected snapshot: %+v", last)
	}
}
