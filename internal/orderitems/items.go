// Package orderitems is the persisted form of an order's contents: a mapping
// from item display name to quantity, stored as a JSON object.
//
// Keys are names, not item ids. Two different items sharing a name collide
// and the later one wins.
package orderitems

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// Line is one (name, quantity) pair fed into the mapping.
type Line struct {
	Name     string
	Quantity int
}

// Items keeps insertion order so a re-opened order lists its entries the way
// they were stored.
type Items struct {
	names []string
	qty   map[string]int
}

func FromLines(lines ...Line) Items {
	var it Items
	for _, l := range lines {
		it.Set(l.Name, l.Quantity)
	}
	return it
}

// Set overwrites an existing name in place or appends a new one.
func (it *Items) Set(name string, qty int) {
	if it.qty == nil {
		it.qty = make(map[string]int)
	}
	if _, ok := it.qty[name]; !ok {
		it.names = append(it.names, name)
	}
	it.qty[name] = qty
}

func (it Items) Get(name string) (int, bool) {
	q, ok := it.qty[name]
	return q, ok
}

func (it Items) Len() int { return len(it.names) }

func (it Items) Names() []string {
	out := make([]string, len(it.names))
	copy(out, it.names)
	return out
}

func (it Items) Lines() []Line {
	out := make([]Line, 0, len(it.names))
	for _, n := range it.names {
		out = append(out, Line{Name: n, Quantity: it.qty[n]})
	}
	return out
}

// Map returns an unordered copy.
func (it Items) Map() map[string]int {
	out := make(map[string]int, len(it.qty))
	for k, v := range it.qty {
		out[k] = v
	}
	return out
}

func (it Items) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range it.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(it.qty[n]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object in document order. Quantities written by
// older clients as numeric strings are accepted.
func (it *Items) UnmarshalJSON(b []byte) error {
	*it = Items{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("items: want object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("items: want key, got %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("items[%s]: %w", name, err)
		}
		q, err := quantityOf(raw)
		if err != nil {
			return fmt.Errorf("items[%s]: %w", name, err)
		}
		it.Set(name, q)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func quantityOf(raw any) (int, error) {
	var n int64
	switch v := raw.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < 1 {
				return 0, fmt.Errorf("%w: %s", ErrInvalidQuantity, v)
			}
			i = int64(f)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, v)
		}
		n = i
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuantity, raw)
	}
	if n < 1 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}
	return int(n), nil
}

func (it Items) Value() (driver.Value, error) {
	b, err := it.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (it *Items) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*it = Items{}
		return nil
	case []byte:
		return it.UnmarshalJSON(v)
	case string:
		return it.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("items: cannot scan %T", src)
	}
}
