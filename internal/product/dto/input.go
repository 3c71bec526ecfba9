package dto

import (
	"bytes"
	"encoding/json"
)

type CreateProductInput struct {
	AssociationID string
	CategoryID    string
	Name          string
	Description   string
	Price         string // Raw text, validated before use
	Unit          string
	ImageURL      string
}

type UpdateProductInput struct {
	ID            string
	AssociationID string
	CategoryID    string
	Name          string
	Description   string
	Price         string
	Unit          string
	ImageURL      string
}

// PriceText keeps a price exactly as the client sent it. JSON strings and
// numbers are both accepted.
type PriceText string

func (p *PriceText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceText(s)
		return nil
	}
	*p = PriceText(b)
	return nil
}

// ProductRequest is the HTTP body for create and update, as JSON or form.
type ProductRequest struct {
	Name        string    `json:"name" form:"name"`
	Description string    `json:"description" form:"description"`
	Price       PriceText `json:"price" form:"price"`
	Unit        string    `json:"unit" form:"unit"`
	ImageURL    string    `json:"image_url" form:"image_url"`
	CategoryID  string    `json:"category_id" form:"category_id"`
}
