package dto

import "time"

type TransactionFilters struct {
	AssociationID string
	ProductID     string
	StartDate     *time.Time // Inclusive, from the start of the day
	EndDate       *time.Time // Inclusive, to the end of the day
	Page          int
	PageSize      int
}
