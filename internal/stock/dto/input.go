package dto

import "github.com/fekuna/omnipos-donation-service/internal/model"

type ReplenishInput struct {
	AssociationID string
	ProductID     string
	Quantity      int
}

type DeductItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type DeductManyInput struct {
	AssociationID string
	Items         []DeductItem
	// AllOrNothing applies the whole order in one database transaction.
	// By default items are applied one by one and earlier items stay
	// applied when a later one fails.
	AllOrNothing bool
	// EventID identifies the message a donation came from. Items already
	// applied for the same EventID are skipped.
	EventID string
}

type ReplenishRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}

type DonationRequest struct {
	Items        []DeductItem `json:"items"`
	AllOrNothing bool         `json:"all_or_nothing"`
}

type DonationResponse struct {
	Success      bool                `json:"success"`
	Transactions []model.Transaction `json:"transactions"`
}
