// Package session holds the per-session state that lives between requests:
// the cart, the checkout handoff and any open order edits.
package session

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"utok/internal/cart"
	"utok/internal/domain"
	"utok/internal/orderitems"
)

// Draft is an order being edited. Nothing here is persisted until save.
type Draft struct {
	OrderID string              `json:"orderId"`
	Fields  domain.OrderFields  `json:"fields"`
	Items   orderitems.Editable `json:"items"`
	Opened  time.Time           `json:"opened"`
}

type Session struct {
	mu sync.Mutex

	ID      string
	Cart    *cart.Cart
	Handoff *cart.Handoff
	Drafts  map[string]*Draft
}

// EnsureCart returns the session cart, creating it on first use.
func (s *Session) EnsureCart() *cart.Cart {
	if s.Cart == nil {
		s.Cart = cart.New()
	}
	return s.Cart
}

// Store is a bounded map of live sessions. The least recently used session
// is evicted when capacity is reached.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func NewStore(capacity int) (*Store, error) {
	c, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Store{cache: c}, nil
}

func (st *Store) get(sid string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if v, ok := st.cache.Get(sid); ok {
		return v.(*Session)
	}
	s := &Session{ID: sid, Drafts: map[string]*Draft{}}
	st.cache.Add(sid, s)
	return s
}

// With runs fn with exclusive access to the session, creating it if needed.
func (st *Store) With(sid string, fn func(*Session) error) error {
	s := st.get(sid)
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (st *Store) Drop(sid string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cache.Remove(sid)
}

func (st *Store) Len() int { return st.cache.Len() }
