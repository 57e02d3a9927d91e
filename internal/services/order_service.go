package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"utok/internal/cart"
	"utok/internal/domain"
	"utok/internal/repos"
	"utok/internal/session"
	"utok/internal/validate"
)

type OrderService struct {
	Orders   *repos.OrderRepo
	Sessions *session.Store
	Now      func() time.Time
}

func NewOrderService(orders *repos.OrderRepo, sessions *session.Store) *OrderService {
	return &OrderService{Orders: orders, Sessions: sessions, Now: time.Now}
}

// Checkout freezes the cart into a handoff. The total computed here is the
// one the order is stored with.
func (s *OrderService) Checkout(sid string) (cart.Handoff, error) {
	var h cart.Handoff
	err := s.Sessions.With(sid, func(ss *session.Session) error {
		if ss.Cart.Len() == 0 {
			return ErrEmptyCart
		}
		h = ss.Cart.Handoff()
		ss.Handoff = &h
		return nil
	})
	return h, err
}

func (s *OrderService) PendingHandoff(sid string) (cart.Handoff, error) {
	var h cart.Handoff
	err := s.Sessions.With(sid, func(ss *session.Session) error {
		if ss.Handoff == nil {
			return ErrNoHandoff
		}
		h = *ss.Handoff
		return nil
	})
	return h, err
}

func checkPlacement(f domain.OrderFields) (domain.OrderFields, error) {
	var ok bool
	if f.Area, ok = validate.Area(f.Area, domain.Areas); !ok {
		return f, invalid("area", "Please provide valid information for the order.")
	}
	if f.Location, ok = validate.Required(f.Location); !ok {
		return f, invalid("location", "Please provide valid information for the order.")
	}
	if f.PaymentMethod, ok = validate.PaymentMethod(f.PaymentMethod, domain.PaymentMethods); !ok {
		return f, invalid("paymentMethod", "Please provide valid information for the order.")
	}
	if f.Phone, ok = validate.Phone(f.Phone); !ok {
		return f, invalid("phoneNumber", "Please provide valid information for the order.")
	}
	if f.UserName, ok = validate.Name(f.UserName); !ok {
		return f, invalid("userName", "Please provide valid information for the order.")
	}
	f.Comments = strings.TrimSpace(f.Comments)
	return f, nil
}

// Place stores the pending handoff as an order owned by u. The cart and the
// handoff are discarded only when the insert succeeded.
func (s *OrderService) Place(sid string, u *domain.User, in domain.OrderFields) (domain.Order, error) {
	f, err := checkPlacement(in)
	if err != nil {
		return domain.Order{}, err
	}
	var o domain.Order
	err = s.Sessions.With(sid, func(ss *session.Session) error {
		if ss.Handoff == nil {
			return ErrNoHandoff
		}
		o = domain.Order{
			ID:            uuid.NewString(),
			Email:         u.Email,
			Area:          f.Area,
			Location:      f.Location,
			PaymentMethod: f.PaymentMethod,
			Phone:         f.Phone,
			UserName:      f.UserName,
			Comments:      f.Comments,
			Items:         ss.Handoff.Items,
			TotalPrice:    ss.Handoff.Total,
			CreatedAt:     s.Now().UTC(),
		}
		if err := s.Orders.Create(o); err != nil {
			return remote("orders.create", err)
		}
		ss.Cart = nil
		ss.Handoff = nil
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *OrderService) List(u *domain.User) ([]domain.Order, error) {
	out, err := s.Orders.ListByEmail(u.Email)
	return out, remote("orders.list", err)
}

// Get returns the order only to its owner.
func (s *OrderService) Get(u *domain.User, id string) (domain.Order, error) {
	id, ok := validate.ID(id)
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	o, err := s.Orders.Get(id)
	if err != nil {
		return domain.Order{}, lookup("orders.get", err)
	}
	if !strings.EqualFold(o.Email, u.Email) {
		return domain.Order{}, ErrForbidden
	}
	return o, nil
}

func (s *OrderService) Delete(sid string, u *domain.User, id string) error {
	if _, err := s.Get(u, id); err != nil {
		return err
	}
	if err := s.Orders.Delete(id); err != nil {
		return lookup("orders.delete", err)
	}
	return s.Sessions.With(sid, func(ss *session.Session) error {
		delete(ss.Drafts, id)
		return nil
	})
}

// OpenDraft loads the order into an editable draft held by the session.
// Reopening discards unsaved edits.
func (s *OrderService) OpenDraft(sid string, u *domain.User, id string) (session.Draft, error) {
	o, err := s.Get(u, id)
	if err != nil {
		return session.Draft{}, err
	}
	d := session.Draft{OrderID: o.ID, Fields: o.Fields(), Items: o.Items.Editable(), Opened: s.Now().UTC()}
	err = s.Sessions.With(sid, func(ss *session.Session) error {
		cp := d
		cp.Items = d.Items.Clone()
		ss.Drafts[o.ID] = &cp
		return nil
	})
	return d, err
}

func (s *OrderService) editDraft(sid, id string, fn func(d *session.Draft) error) (session.Draft, error) {
	var out session.Draft
	err := s.Sessions.With(sid, func(ss *session.Session) error {
		d, ok := ss.Drafts[id]
		if !ok {
			return ErrNoDraft
		}
		if err := fn(d); err != nil {
			return err
		}
		out = *d
		out.Items = d.Items.Clone()
		return nil
	})
	return out, err
}

func (s *OrderService) Draft(sid, id string) (session.Draft, error) {
	return s.editDraft(sid, id, func(*session.Draft) error { return nil })
}

// DraftPatch carries the text fields the client changed; nil means untouched.
type DraftPatch struct {
	Area          *string `json:"area"`
	Location      *string `json:"location"`
	PaymentMethod *string `json:"paymentMethod"`
	Phone         *string `json:"phoneNumber"`
	UserName      *string `json:"userName"`
	Comments      *string `json:"comments"`
}

func (s *OrderService) PatchDraft(sid, id string, p DraftPatch) (session.Draft, error) {
	return s.editDraft(sid, id, func(d *session.Draft) error {
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		set(&d.Fields.Area, p.Area)
		set(&d.Fields.Location, p.Location)
		set(&d.Fields.PaymentMethod, p.PaymentMethod)
		set(&d.Fields.Phone, p.Phone)
		set(&d.Fields.UserName, p.UserName)
		set(&d.Fields.Comments, p.Comments)
		return nil
	})
}

// SetDraftQuantity stores value exactly as typed; it is only checked on save.
func (s *OrderService) SetDraftQuantity(sid, id, name, value string) (session.Draft, error) {
	return s.editDraft(sid, id, func(d *session.Draft) error {
		if !d.Items.SetQuantity(name, value) {
			return ErrNotFound
		}
		return nil
	})
}

func (s *OrderService) RemoveDraftItem(sid, id, name string) (session.Draft, error) {
	return s.editDraft(sid, id, func(d *session.Draft) error {
		if !d.Items.Remove(name) {
			return ErrNotFound
		}
		return nil
	})
}

func checkUpdate(f domain.OrderFields) (domain.OrderFields, error) {
	var ok bool
	for _, fld := range []struct {
		name string
		v    *string
	}{
		{"area", &f.Area},
		{"location", &f.Location},
		{"paymentMethod", &f.PaymentMethod},
		{"phoneNumber", &f.Phone},
		{"userName", &f.UserName},
	} {
		if *fld.v, ok = validate.Required(*fld.v); !ok {
			return f, invalid(fld.name, "Please fill out all fields.")
		}
	}
	f.Comments = strings.TrimSpace(f.Comments)
	return f, nil
}

// SaveDraft folds the draft back into persisted items and overwrites the
// stored order. The total stays as placed. The draft is dropped on success
// and kept untouched on failure.
func (s *OrderService) SaveDraft(sid string, u *domain.User, id string) (domain.Order, error) {
	d, err := s.Draft(sid, id)
	if err != nil {
		return domain.Order{}, err
	}
	f, err := checkUpdate(d.Fields)
	if err != nil {
		return domain.Order{}, err
	}
	items, err := d.Items.Fold()
	if err != nil {
		return domain.Order{}, invalid("items", "Please enter a whole number greater than zero for every item.")
	}
	if items.Len() == 0 {
		return domain.Order{}, invalid("items", "An order needs at least one item.")
	}

	o, err := s.Get(u, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.Orders.Update(id, f, items); err != nil {
		return domain.Order{}, lookup("orders.update", err)
	}

	err = s.Sessions.With(sid, func(ss *session.Session) error {
		delete(ss.Drafts, id)
		return nil
	})
	o.Area, o.Location, o.PaymentMethod = f.Area, f.Location, f.PaymentMethod
	o.Phone, o.UserName, o.Comments = f.Phone, f.UserName, f.Comments
	o.Items = items
	return o, err
}

func (s *OrderService) DiscardDraft(sid, id string) error {
	return s.Sessions.With(sid, func(ss *session.Session) error {
		if _, ok := ss.Drafts[id]; !ok {
			return ErrNoDraft
		}
		delete(ss.Drafts, id)
		return nil
	})
}
