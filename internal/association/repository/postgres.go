package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*model.Association, error) {
	var a model.Association
	err := r.DB.GetContext(ctx, &a, r.DB.Rebind(`SELECT id, email, name, created_at FROM associations WHERE email = ?`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) CreateIfAbsent(ctx context.Context, a *model.Association) error {
	query := `
        INSERT INTO associations (id, email, name, created_at)
        VALUES (:id, :email, :name, :created_at)
        ON CONFLICT (email) DO NOTHING
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	return err
}
