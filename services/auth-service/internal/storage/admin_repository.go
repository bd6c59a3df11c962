package storage

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
)

var ErrNotFound = errors.New("admin not found")

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	LastLoginAt  *time.Time
}

type AdminRepository struct {
	pool *db.Pool
}

func NewAdminRepository(pool *db.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (Admin, error) {
	return r.getOne(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (Admin, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *AdminRepository) getOne(ctx context.Context, where string, arg any) (Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, email, password_hash, role, last_login_at
		FROM admins
		`+where, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.LastLoginAt)
	if db.IsNotFound(err) {
		return Admin{}, ErrNotFound
	}
	if err != nil {
		return Admin{}, err
	}
	return a, nil
}

// Ensure inserts the admin unless the email is already present. It reports whether a
// row was created.
func (r *AdminRepository) Ensure(ctx context.Context, email, passwordHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO admins (email, password_hash)
		VALUES (lower($1), $2)
		ON CONFLICT (email) DO NOTHING
	`, email, passwordHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AdminRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE admins SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}
