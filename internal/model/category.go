package model

type Category struct {
	BaseModel
	AssociationID string `db:"association_id" json:"association_id"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description"`
}
