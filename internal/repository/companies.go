package repository

import (
	"context"
	"database/sql"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/jmoiron/sqlx"
)

type CompaniesRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
	UpdateTier(ctx context.Context, tx *sqlx.Tx, id int64, tier model.Tier) error
}

type CompaniesRepositoryImpl struct {
	db *sqlx.DB
}

func NewCompaniesRepository(db *sqlx.DB) *CompaniesRepositoryImpl {
	return &CompaniesRepositoryImpl{db: db}
}

var _ CompaniesRepository = (*CompaniesRepositoryImpl)(nil)

func (r *CompaniesRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Company, error) {
	var c model.Company
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, start_date, ad_spend, tier, created_at, updated_at
		  FROM companies
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns every company in id order. Batch jobs iterate this
// sequentially; per-record ordering beyond the listing order is not needed.
func (r *CompaniesRepositoryImpl) List(ctx context.Context) ([]model.Company, error) {
	var rows []model.Company
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, start_date, ad_spend, tier, created_at, updated_at
		  FROM companies
		 ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CompaniesRepositoryImpl) UpdateTier(ctx context.Context, tx *sqlx.Tx, id int64, tier model.Tier) error {
	const q = `UPDATE companies SET tier = ?, updated_at = NOW() WHERE id = ?`
	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, tier.String(), id)
		return err
	})
}
