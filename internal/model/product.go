package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	AssociationID string          `db:"association_id" json:"association_id"`
	CategoryID    string          `db:"category_id" json:"category_id"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Quantity      int             `db:"quantity" json:"quantity"` // Written only by the stock ledger
	Unit          string          `db:"unit" json:"unit"`
	ImageURL      string          `db:"image_url" json:"image_url"`
	CategoryName  string          `db:"category_name" json:"category_name"` // Joined data
}
