package repos

import (
	"github.com/jmoiron/sqlx"

	"utok/internal/domain"
)

type ServiceRepo struct{ db *sqlx.DB }

func NewServiceRepo(db *sqlx.DB) *ServiceRepo { return &ServiceRepo{db: db} }

func (r *ServiceRepo) List() ([]domain.Service, error) {
	out := []domain.Service{}
	err := r.db.Select(&out, `SELECT name, icon, available, position FROM services ORDER BY position`)
	return out, err
}

func (r *ServiceRepo) Get(name string) (domain.Service, error) {
	var s domain.Service
	err := r.db.Get(&s, r.db.Rebind(`SELECT name, icon, available, position FROM services WHERE LOWER(name)=LOWER(?)`), name)
	return s, err
}
