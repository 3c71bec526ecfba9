package dto

type CategoryFilters struct {
	AssociationID string
	Page          int
	PageSize      int // 0 returns every category
}
