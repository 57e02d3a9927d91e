package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"utok/internal/domain"
)

type ItemRepo struct{ db *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{db: db} }

func (r *ItemRepo) Get(id string) (domain.Item, error) {
	var it domain.Item
	err := r.db.Get(&it, r.db.Rebind(`SELECT id, name, image, price FROM items WHERE id = ?`), id)
	return it, err
}

// Search matches q case-insensitively against the item name. An empty q lists
// everything.
func (r *ItemRepo) Search(q string) ([]domain.Item, error) {
	query := `SELECT id, name, image, price FROM items`
	args := []any{}
	if q != "" {
		query += ` WHERE LOWER(name) LIKE ?`
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	query += ` ORDER BY name`

	out := []domain.Item{}
	err := r.db.Select(&out, r.db.Rebind(query), args...)
	return out, err
}
