package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"utok/internal/domain"
	"utok/internal/orderitems"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, email, area, location, payment_method, phone, user_name, comments, items, total_price, created_at`

// Create inserts the order row exactly as given, total included.
func (r *OrderRepo) Create(o domain.Order) error {
	_, err := r.db.Exec(r.db.Rebind(`
	  INSERT INTO orders (`+orderColumns+`)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), o.ID, o.Email, o.Area, o.Location, o.PaymentMethod, o.Phone, o.UserName, o.Comments, o.Items, o.TotalPrice, o.CreatedAt)
	return err
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, r.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	return o, err
}

// ListByEmail returns the owner's orders, newest first.
func (r *OrderRepo) ListByEmail(email string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.Select(&out, r.db.Rebind(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE LOWER(email) = LOWER(?)
		ORDER BY created_at DESC
	`), email)
	return out, err
}

// Update overwrites the editable fields and replaces items wholesale.
// total_price is never touched after placement.
func (r *OrderRepo) Update(id string, f domain.OrderFields, items orderitems.Items) error {
	res, err := r.db.Exec(r.db.Rebind(`
		UPDATE orders
		SET area = ?, location = ?, payment_method = ?, phone = ?, user_name = ?, comments = ?, items = ?
		WHERE id = ?
	`), f.Area, f.Location, f.PaymentMethod, f.Phone, f.UserName, f.Comments, items, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *OrderRepo) Delete(id string) error {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM orders WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
