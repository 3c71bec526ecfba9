package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/product"
	"github.com/fekuna/omnipos-donation-service/internal/product/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const selectProduct = `
    SELECT p.id, p.association_id, p.category_id, p.name, p.description, p.price,
           p.quantity, p.unit, p.image_url, p.created_at, p.updated_at,
           COALESCE(c.name, '') AS category_name
    FROM products p
    LEFT JOIN categories c ON c.id = p.category_id
`

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, association_id, category_id, name, description, price,
            quantity, unit, image_url, created_at, updated_at
        )
        VALUES (
            :id, :association_id, :category_id, :name, :description, :price,
            :quantity, :unit, :image_url, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, associationID, id string) (*model.Product, error) {
	var p model.Product
	query := r.DB.Rebind(selectProduct + ` WHERE p.id = ? AND p.association_id = ?`)
	err := r.DB.GetContext(ctx, &p, query, id, associationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{"p.association_id = ?"}
	args := []interface{}{f.AssociationID}

	if f.CategoryID != "" {
		conditions = append(conditions, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			return []model.Product{}, 0, nil
		}
		conditions = append(conditions, "p.id IN (?)")
		args = append(args, f.IDs)
	} else if f.SearchQuery != "" {
		conditions = append(conditions, "LOWER(p.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.SearchQuery)+"%")
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.In("SELECT count(*) FROM products p"+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := selectProduct + where + " ORDER BY " + orderBy(f)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	query, listArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, 0, err
	}

	products := []model.Product{}
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(query), listArgs...); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// orderBy whitelists sortable columns.
func orderBy(f *dto.ProductFilters) string {
	col := "p.name"
	switch f.SortBy {
	case "price":
		col = "p.price"
	case "quantity":
		col = "p.quantity"
	case "created_at":
		col = "p.created_at"
	}
	dir := " ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		dir = " DESC"
	}
	return col + dir + ", p.id"
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET category_id = :category_id,
            name = :name,
            description = :description,
            price = :price,
            unit = :unit,
            image_url = :image_url,
            updated_at = :updated_at
        WHERE id = :id AND association_id = :association_id
    `
	res, err := r.DB.NamedExecContext(ctx, query, p)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Delete removes the product; its ledger rows go with it through the
// foreign key's ON DELETE CASCADE.
func (r *PGRepository) Delete(ctx context.Context, associationID, id string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM products WHERE id = ? AND association_id = ?`), id, associationID)
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
		return product.ErrNotFound
	}
	return nil
}
