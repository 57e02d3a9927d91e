package orderitems

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one row of the edit form. Quantity is whatever the customer typed;
// it is only parsed by Fold.
type Entry struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

type Editable []Entry

func (it Items) Editable() Editable {
	out := make(Editable, 0, len(it.names))
	for _, n := range it.names {
		out = append(out, Entry{Name: n, Quantity: strconv.Itoa(it.qty[n])})
	}
	return out
}

// SetQuantity stores value verbatim on every entry with that name.
func (e Editable) SetQuantity(name, value string) bool {
	found := false
	for i := range e {
		if e[i].Name == name {
			e[i].Quantity = value
			found = true
		}
	}
	return found
}

func (e *Editable) Remove(name string) bool {
	out := (*e)[:0]
	removed := false
	for _, en := range *e {
		if en.Name == name {
			removed = true
			continue
		}
		out = append(out, en)
	}
	*e = out
	return removed
}

// Fold turns the form back into Items. Every quantity must be a positive
// integer; the first bad one aborts the fold.
func (e Editable) Fold() (Items, error) {
	var it Items
	for _, en := range e {
		q, err := strconv.Atoi(strings.TrimSpace(en.Quantity))
		if err != nil || q < 1 {
			return Items{}, fmt.Errorf("%w: %q for %s", ErrInvalidQuantity, en.Quantity, en.Name)
		}
		it.Set(en.Name, q)
	}
	return it, nil
}

func (e Editable) Clone() Editable {
	out := make(Editable, len(e))
	copy(out, e)
	return out
}
