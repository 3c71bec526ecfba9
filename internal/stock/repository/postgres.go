package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const (
	incrementQuery = `
        UPDATE products SET quantity = quantity + ?, updated_at = ?
        WHERE id = ? AND association_id = ?
        RETURNING quantity
    `
	// The quantity guard makes the decrement conditional: concurrent
	// donations serialize on the row and can never drive stock negative.
	decrementQuery = `
        UPDATE products SET quantity = quantity - ?, updated_at = ?
        WHERE id = ? AND association_id = ? AND quantity >= ?
        RETURNING quantity
    `
	insertEventQuery = `
        INSERT INTO processed_events (event_key, processed_at) VALUES (?, ?)
        ON CONFLICT (event_key) DO NOTHING
    `
	insertTransactionQuery = `
        INSERT INTO transactions (id, association_id, product_id, type, quantity, balance_after, created_at)
        VALUES (:id, :association_id, :product_id, :type, :quantity, :balance_after, :created_at)
    `
)

func (r *PGRepository) ApplyMovements(ctx context.Context, movements []*model.Transaction) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range movements {
		if err := applyMovement(ctx, tx, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stock movements: %w", err)
	}
	return nil
}

func applyMovement(ctx context.Context, tx *sqlx.Tx, m *model.Transaction) error {
	if m.EventKey != "" {
		if err := recordEvent(ctx, tx, m); err != nil {
			return err
		}
	}

	var (
		balance int
		err     error
	)
	switch m.Type {
	case model.TransactionIn:
		err = tx.GetContext(ctx, &balance, tx.Rebind(incrementQuery),
			m.Quantity, m.CreatedAt, m.ProductID, m.AssociationID)
	case model.TransactionOut:
		err = tx.GetContext(ctx, &balance, tx.Rebind(decrementQuery),
			m.Quantity, m.CreatedAt, m.ProductID, m.AssociationID, m.Quantity)
	default:
		return fmt.Errorf("unknown movement type %q", m.Type)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return explainRejection(ctx, tx, m)
	}
	if err != nil {
		return fmt.Errorf("update quantity of %s: %w", m.ProductID, err)
	}

	m.BalanceAfter = balance
	if _, err := tx.NamedExecContext(ctx, insertTransactionQuery, m); err != nil {
		return fmt.Errorf("append ledger row for %s: %w", m.ProductID, err)
	}
	return nil
}

func recordEvent(ctx context.Context, tx *sqlx.Tx, m *model.Transaction) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(insertEventQuery), m.EventKey, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("record event %s: %w", m.EventKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record event %s: %w", m.EventKey, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", stock.ErrDuplicateEvent, m.EventKey)
	}
	return nil
}

// explainRejection tells a missing product apart from a short one after
// the guarded update matched no row.
func explainRejection(ctx context.Context, tx *sqlx.Tx, m *model.Transaction) error {
	var row struct {
		Name     string `db:"name"`
		Quantity int    `db:"quantity"`
	}
	err := tx.GetContext(ctx, &row,
		tx.Rebind(`SELECT name, quantity FROM products WHERE id = ? AND association_id = ?`),
		m.ProductID, m.AssociationID)
	if errors.Is(err, sql.ErrNoRows) {
		return &stock.ItemError{ProductID: m.ProductID, Requested: m.Quantity, Err: stock.ErrProductNotFound}
	}
	if err != nil {
		return fmt.Errorf("read product %s: %w", m.ProductID, err)
	}
	return &stock.ItemError{
		ProductID:   m.ProductID,
		ProductName: row.Name,
		Requested:   m.Quantity,
		Available:   row.Quantity,
		Err:         stock.ErrInsufficientStock,
	}
}

const selectTransaction = `
    SELECT t.id, t.association_id, t.product_id, t.type, t.quantity, t.balance_after, t.created_at,
           COALESCE(p.name, '') AS product_name,
           COALESCE(p.unit, '') AS product_unit,
           COALESCE(p.image_url, '') AS product_image_url,
           COALESCE(c.name, '') AS category_name
    FROM transactions t
    LEFT JOIN products p ON p.id = t.product_id
    LEFT JOIN categories c ON c.id = p.category_id
`

func (r *PGRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.Transaction, int, error) {
	conditions := []string{"t.association_id = :association_id"}
	args := map[string]interface{}{"association_id": f.AssociationID}

	if f.ProductID != "" {
		conditions = append(conditions, "t.product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "t.created_at >= :start_date")
		args["start_date"] = startOfDay(*f.StartDate)
	}
	if f.EndDate != nil {
		conditions = append(conditions, "t.created_at < :end_date")
		args["end_date"] = startOfDay(*f.EndDate).AddDate(0, 0, 1)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM transactions t"+where, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := selectTransaction + where + " ORDER BY t.created_at DESC, t.id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	query, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}

	items := []model.Transaction{}
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(query), listArgs...); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
