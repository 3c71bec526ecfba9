package dto

type ProductFilters struct {
	AssociationID string   `json:"-"`
	CategoryID    string   `json:"category_id,omitempty"`
	SearchQuery   string   `json:"q,omitempty"`
	IDs           []string `json:"ids,omitempty"` // Restricts the list, set from search hits
	SortBy        string   `json:"sort_by,omitempty"` // name, price, quantity, created_at
	SortOrder     string   `json:"sort_order,omitempty"`
	Page          int      `json:"page,omitempty"`
	PageSize      int      `json:"page_size,omitempty"`
}
