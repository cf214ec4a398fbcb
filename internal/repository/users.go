package repository

import (
	"context"
	"database/sql"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/jmoiron/sqlx"
)

type UsersRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	FirstByRole(ctx context.Context, role model.Role) (*model.User, error)
	First(ctx context.Context) (*model.User, error)
}

type UsersRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsersRepository(db *sqlx.DB) *UsersRepositoryImpl {
	return &UsersRepositoryImpl{db: db}
}

var _ UsersRepository = (*UsersRepositoryImpl)(nil)

const userColumns = `id, name, email, role, api_key, status, rate_limit_rps, created_at, updated_at`

func (r *UsersRepositoryImpl) getOne(ctx context.Context, q string, args ...any) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, q, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE id = ? LIMIT 1
	`, id)
}

func (r *UsersRepositoryImpl) GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE api_key = ? LIMIT 1
	`, apiKey)
}

// FirstByRole returns the oldest active user holding the role, or nil.
func (r *UsersRepositoryImpl) FirstByRole(ctx context.Context, role model.Role) (*model.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE role = ? AND status = 'active'
		 ORDER BY id LIMIT 1
	`, role.String())
}

// First returns any active user (last resort of the assignee chain), or nil.
func (r *UsersRepositoryImpl) First(ctx context.Context) (*model.User, error) {
	return r.getOne(ctx, `
		SELECT ` + userColumns + `
		  FROM users
		 WHERE status = 'active'
		 ORDER BY id LIMIT 1
	`)
}
