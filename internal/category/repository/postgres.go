package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-donation-service/internal/category"
	"github.com/fekuna/omnipos-donation-service/internal/category/dto"
	"github.com/fekuna/omnipos-donation-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const selectColumns = `id, association_id, name, description, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
        INSERT INTO categories (id, association_id, name, description, created_at, updated_at)
        VALUES (:id, :association_id, :name, :description, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, associationID, id string) (*model.Category, error) {
	var c model.Category
	query := r.DB.Rebind(`SELECT ` + selectColumns + ` FROM categories WHERE id = ? AND association_id = ?`)
	err := r.DB.GetContext(ctx, &c, query, id, associationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	var count int
	countQuery := r.DB.Rebind(`SELECT count(*) FROM categories WHERE association_id = ?`)
	if err := r.DB.GetContext(ctx, &count, countQuery, f.AssociationID); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + selectColumns + ` FROM categories WHERE association_id = ? ORDER BY name, id`
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	categories := []model.Category{}
	err := r.DB.SelectContext(ctx, &categories, r.DB.Rebind(query), f.AssociationID)
	return categories, count, err
}

func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	query := `
        UPDATE categories SET name = :name, description = :description, updated_at = :updated_at
        WHERE id = :id AND association_id = :association_id
    `
	res, err := r.DB.NamedExecContext(ctx, query, c)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Delete removes the category; its products go with it through the
// foreign key's ON DELETE CASCADE.
func (r *PGRepository) Delete(ctx context.Context, associationID, id string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM categories WHERE id = ? AND association_id = ?`), id, associationID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return category.ErrNotFound
	}
	return nil
}
