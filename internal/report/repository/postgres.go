package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/report/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) get(ctx context.Context, dest interface{}, query string, arg map[string]interface{}) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return r.DB.GetContext(ctx, dest, r.DB.Rebind(q), args...)
}

func (r *PGRepository) selectAll(ctx context.Context, dest interface{}, query string, arg map[string]interface{}) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return r.DB.SelectContext(ctx, dest, r.DB.Rebind(q), args...)
}

func (r *PGRepository) Overview(ctx context.Context, associationID string) (*dto.Overview, error) {
	query := `
        SELECT
            (SELECT count(*) FROM products WHERE association_id = :association_id) AS total_products,
            (SELECT count(*) FROM categories WHERE association_id = :association_id) AS total_categories,
            (SELECT count(*) FROM transactions WHERE association_id = :association_id) AS total_transactions,
            (SELECT COALESCE(SUM(price * quantity), 0) FROM products WHERE association_id = :association_id) AS stock_value
    `
	var o dto.Overview
	if err := r.get(ctx, &o, query, map[string]interface{}{"association_id": associationID}); err != nil {
		return nil, err
	}
	o.StockValue = o.StockValue.Round(2)
	return &o, nil
}

func (r *PGRepository) StockCounts(ctx context.Context, associationID string, threshold int) (*dto.StockCounts, error) {
	query := `
        SELECT
            COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock,
            COALESCE(SUM(CASE WHEN quantity > 0 AND quantity <= :threshold THEN 1 ELSE 0 END), 0) AS low_stock,
            COALESCE(SUM(CASE WHEN quantity > :threshold THEN 1 ELSE 0 END), 0) AS in_stock
        FROM products
        WHERE association_id = :association_id
    `
	var c dto.StockCounts
	err := r.get(ctx, &c, query, map[string]interface{}{
		"association_id": associationID,
		"threshold":      threshold,
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) CriticalProducts(ctx context.Context, associationID string, threshold, limit int) ([]model.Product, error) {
	query := `
        SELECT p.id, p.association_id, p.category_id, p.name, p.description, p.price,
               p.quantity, p.unit, p.image_url, p.created_at, p.updated_at,
               COALESCE(c.name, '') AS category_name
        FROM products p
        LEFT JOIN categories c ON c.id = p.category_id
        WHERE p.association_id = :association_id AND p.quantity <= :threshold
        ORDER BY p.quantity ASC, p.name ASC
        LIMIT :limit
    `
	products := []model.Product{}
	err := r.selectAll(ctx, &products, query, map[string]interface{}{
		"association_id": associationID,
		"threshold":      threshold,
		"limit":          limit,
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) CategoryDistribution(ctx context.Context, associationID string, limit int) ([]dto.CategoryCount, error) {
	query := `
        SELECT c.id AS category_id, c.name, COUNT(p.id) AS product_count
        FROM categories c
        LEFT JOIN products p ON p.category_id = c.id
        WHERE c.association_id = :association_id
        GROUP BY c.id, c.name
        ORDER BY product_count DESC, c.name ASC
        LIMIT :limit
    `
	counts := []dto.CategoryCount{}
	err := r.selectAll(ctx, &counts, query, map[string]interface{}{
		"association_id": associationID,
		"limit":          limit,
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
