package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-donation-service/internal/model"
)

type Overview struct {
	TotalProducts     int             `db:"total_products" json:"total_products"`
	TotalCategories   int             `db:"total_categories" json:"total_categories"`
	TotalTransactions int             `db:"total_transactions" json:"total_transactions"`
	StockValue        decimal.Decimal `db:"stock_value" json:"stock_value"`
}

// StockCounts buckets products by quantity against the low stock threshold.
type StockCounts struct {
	OutOfStock int `db:"out_of_stock" json:"out_of_stock"`
	LowStock   int `db:"low_stock" json:"low_stock"`
	InStock    int `db:"in_stock" json:"in_stock"`
}

type StockSummary struct {
	StockCounts
	Threshold        int             `json:"threshold"`
	CriticalProducts []model.Product `json:"critical_products"`
}

type CategoryCount struct {
	CategoryID   string `db:"category_id" json:"category_id"`
	Name         string `db:"name" json:"name"`
	ProductCount int    `db:"product_count" json:"product_count"`
}
