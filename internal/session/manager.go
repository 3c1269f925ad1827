package session

import (
	"sync"

	"github.com/google/uuid"

	"storefront-session/internal/domain"
)

// Manager is the session registry. It serializes operations per session
// so every mutation runs to completion before the next one starts, which
// is the concurrency model the controller's operations assume.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed
}

type managed struct {
	mu sync.Mutex
	st *domain.Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*managed)}
}

// Create registers a fresh session: empty cart, no order, delivery stage.
func (m *Manager) Create() domain.Session {
	st := &domain.Session{
		ID:    uuid.NewString(),
		Cart:  domain.Cart{},
		Stage: domain.StageDelivery,
	}
	m.mu.Lock()
	m.sessions[st.ID] = &managed{st: st}
	m.mu.Unlock()
	return cloneSession(st)
}

// Get returns a copy of the session state.
func (m *Manager) Get(id string) (domain.Session, error) {
	entry, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneSession(entry.st), nil
}

// Run executes one operation against the session under its lock and
// returns the resulting state copy along with the operation's effects.
func (m *Manager) Run(id string, op func(*domain.Session) Effects) (domain.Session, Effects, error) {
	entry, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, Effects{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	eff := op(entry.st)
	return cloneSession(entry.st), eff, nil
}

func (m *Manager) lookup(id string) (*managed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

func cloneSession(st *domain.Session) domain.Session {
	out := *st
	out.Cart = st.Cart.Clone()
	if st.Order != nil {
		o := *st.Order
		o.Products = append([]domain.CartItem(nil), st.Order.Products...)
		out.Order = &o
	}
	if st.DeliveryDate != nil {
		d := *st.DeliveryDate
		out.DeliveryDate = &d
	}
	return out
}
