package services

import (
	"github.com/shopspring/decimal"

	"utok/internal/cart"
	"utok/internal/session"
)

type CartService struct {
	Catalog  *CatalogService
	Sessions *session.Store
}

func NewCartService(catalog *CatalogService, sessions *session.Store) *CartService {
	return &CartService{Catalog: catalog, Sessions: sessions}
}

type CartView struct {
	State cart.State      `json:"state"`
	Items []cart.LineItem `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func viewOf(c *cart.Cart) CartView {
	items := c.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartView{State: c.State(), Items: items, Total: c.Total()}
}

func (s *CartService) View(sid string) (CartView, error) {
	var v CartView
	err := s.Sessions.With(sid, func(ss *session.Session) error {
		v = viewOf(ss.Cart)
		return nil
	})
	return v, err
}

type AddResult struct {
	Present  bool     `json:"present"`
	Quantity int      `json:"quantity"`
	Cart     CartView `json:"cart"`
}

// Add looks the item up first; the cart is only touched once the catalog
// answered.
func (s *CartService) Add(sid, itemID string) (AddResult, error) {
	item, err := s.Catalog.GetItem(itemID)
	if err != nil {
		return AddResult{}, err
	}
	var res AddResult
	err = s.Sessions.With(sid, func(ss *session.Session) error {
		res.Present, res.Quantity = ss.EnsureCart().Add(item)
		res.Cart = viewOf(ss.Cart)
		return nil
	})
	return res, err
}

func (s *CartService) mutate(sid, itemID string, fn func(c *cart.Cart) bool) (CartView, error) {
	var v CartView
	err := s.Sessions.With(sid, func(ss *session.Session) error {
		if ss.Cart == nil || !fn(ss.Cart) {
			return ErrNotFound
		}
		v = viewOf(ss.Cart)
		return nil
	})
	return v, err
}

func (s *CartService) Increment(sid, itemID string) (CartView, error) {
	return s.mutate(sid, itemID, func(c *cart.Cart) bool { return c.Increment(itemID) })
}

func (s *CartService) Decrement(sid, itemID string) (CartView, error) {
	return s.mutate(sid, itemID, func(c *cart.Cart) bool { return c.Decrement(itemID) })
}

// SetQuantity takes the raw client value; anything that is not a positive
// integer becomes 1.
func (s *CartService) SetQuantity(sid, itemID string, raw any) (CartView, error) {
	return s.mutate(sid, itemID, func(c *cart.Cart) bool { return c.SetQuantityValue(itemID, raw) })
}

func (s *CartService) Remove(sid, itemID string) (CartView, error) {
	return s.mutate(sid, itemID, func(c *cart.Cart) bool { return c.Remove(itemID) })
}
