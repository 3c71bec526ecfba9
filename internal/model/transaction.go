package model

import "time"

type TransactionType string

const (
	TransactionIn  TransactionType = "IN"
	TransactionOut TransactionType = "OUT"
)

// Transaction is an immutable stock ledger entry.
type Transaction struct {
	ID            string          `db:"id" json:"id"`
	AssociationID string          `db:"association_id" json:"association_id"`
	ProductID     string          `db:"product_id" json:"product_id"`
	Type          TransactionType `db:"type" json:"type"`
	Quantity      int             `db:"quantity" json:"quantity"`
	BalanceAfter  int             `db:"balance_after" json:"balance_after"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`

	// Joined data for display
	ProductName     string `db:"product_name" json:"product_name,omitempty"`
	ProductUnit     string `db:"product_unit" json:"product_unit,omitempty"`
	ProductImageURL string `db:"product_image_url" json:"product_image_url,omitempty"`
	CategoryName    string `db:"category_name" json:"category_name,omitempty"`

	// EventKey, when set, is recorded with the movement so a redelivered
	// event cannot apply it twice.
	EventKey string `db:"-" json:"-"`
}
