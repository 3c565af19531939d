package devserver

import (
	"errors"
	"sync"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/pkg/hasher"
)

var (
	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOrderUnknown       = errors.New("order not found")
	ErrOrderTaken         = errors.New("order already taken")
)

type trackedOrder struct {
	order   models.Order
	takenBy string
}

// Store is the dev backend's in-memory state: registered riders and open
// orders. First accept wins; a second rider gets ErrOrderTaken, which the
// handler turns into the business rejection the client rolls back on.
type Store struct {
	mu     sync.Mutex
	users  map[string]*models.User
	orders map[string]*trackedOrder
}

func NewStore() *Store {
	return &Store{
		users:  map[string]*models.User{},
		orders: map[string]*trackedOrder{},
	}
}

func (s *Store) CreateUser(name, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return ErrUserExists
	}

	u := &models.User{Name: name, Email: email}
	u.SetPasswordHash(hasher.Hash(password))
	s.users[email] = u
	return nil
}

func (s *Store) Authenticate(email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok || !hasher.Verify(password, u.PasswordHash()) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) User(email string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	return u, ok
}

func (s *Store) AddOrder(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.OrderID]; ok {
		return
	}
	s.orders[order.OrderID] = &trackedOrder{order: order}
}

// AcceptOrder assigns the order to the rider. The first accept wins.
func (s *Store) AcceptOrder(email, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderUnknown
	}
	if o.takenBy != "" && o.takenBy != email {
		return ErrOrderTaken
	}
	o.takenBy = email
	return nil
}

// CompleteOrder finishes the rider's delivery and credits its price.
func (s *Store) CompleteOrder(email, orderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.takenBy != email {
		return 0, ErrOrderUnknown
	}
	delete(s.orders, orderID)

	if u, ok := s.users[email]; ok {
		u.Earnings += o.order.Price
	}
	return o.order.Price, nil
}

func (s *Store) Earnings(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u.Earnings
	}
	return 0
}
