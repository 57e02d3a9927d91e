package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"utok/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT id,email,name,password_hash FROM users WHERE LOWER(email)=LOWER(?)`), email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT id,email,name,password_hash FROM users WHERE id=?`), id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create fails with a unique violation when the email is taken; callers check
// ByEmail first.
func (r *UserRepo) Create(u domain.User) error {
	_, err := r.DB.Exec(r.DB.Rebind(`INSERT INTO users(id,email,name,password_hash,created_at) VALUES(?,?,?,?,?)`),
		u.ID, u.Email, u.Name, u.Hash, time.Now().UTC())
	return err
}

func (r *UserRepo) UpdateHash(userID, hash string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`UPDATE users SET password_hash=? WHERE id=?`), hash, userID)
	return err
}

func (r *UserRepo) BindSession(sid, userID string) error {
	now := time.Now().UTC()
	_, err := r.DB.Exec(r.DB.Rebind(`INSERT INTO sessions(id,user_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`), sid, userID, now, now)
	return err
}

// SessionUser returns sql.ErrNoRows for unknown or signed-out sessions.
func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`
      SELECT u.id,u.email,u.name,u.password_hash
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`), sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`DELETE FROM sessions WHERE id=?`), sid)
	return err
}

// DeleteUserCascade removes the user and every session bound to them. Orders
// are keyed by email and stay for the record.
func (r *UserRepo) DeleteUserCascade(userID string) ([]string, error) {
	tx, err := r.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var sessionIDs []string
	if err := tx.Select(&sessionIDs, tx.Rebind(`SELECT id FROM sessions WHERE user_id=?`), userID); err != nil {
		return nil, err
	}
	if len(sessionIDs) > 0 {
		query, args, err := sqlx.In(`DELETE FROM sessions WHERE id IN (?)`, sessionIDs)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec(tx.Rebind(`DELETE FROM users WHERE id=?`), userID); err != nil {
		return nil, err
	}
	return sessionIDs, tx.Commit()
}
