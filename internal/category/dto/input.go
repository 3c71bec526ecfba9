package dto

type CreateCategoryInput struct {
	AssociationID string
	Name          string
	Description   string
}

type UpdateCategoryInput struct {
	ID            string
	AssociationID string
	Name          string
	Description   string
}

// CategoryRequest is the HTTP body for create and update.
type CategoryRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}
