package model

import "time"

// Association is the tenant root. It owns every category, product and
// transaction through association_id.
type Association struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
