// Package testutil provides fixtures shared by repository and usecase tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/migrations"
)

// NewDB returns an in-memory SQLite database with the service schema applied.
// A single connection keeps the in-memory database alive for the test.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	files, err := migrations.UpFiles()
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	for _, name := range files {
		stmt, err := migrations.FS.ReadFile(name)
		if err != nil {
			t.Fatalf("read migration %s: %v", name, err)
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
	return db
}

func SeedAssociation(t *testing.T, db *sqlx.DB, email, name string) *model.Association {
	t.Helper()
	a := &model.Association{ID: uuid.New().String(), Email: email, Name: name, CreatedAt: time.Now().UTC()}
	_, err := db.NamedExec(`INSERT INTO associations (id, email, name, created_at) VALUES (:id, :email, :name, :created_at)`, a)
	if err != nil {
		t.Fatalf("seed association: %v", err)
	}
	return a
}

func SeedCategory(t *testing.T, db *sqlx.DB, associationID, name string) *model.Category {
	t.Helper()
	now := time.Now().UTC()
	c := &model.Category{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		AssociationID: associationID,
		Name:          name,
	}
	_, err := db.NamedExec(`
        INSERT INTO categories (id, association_id, name, description, created_at, updated_at)
        VALUES (:id, :association_id, :name, :description, :created_at, :updated_at)`, c)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

// SeedProduct inserts a product with a starting quantity. Only fixtures write
// quantity directly; the service itself goes through the stock ledger.
func SeedProduct(t *testing.T, db *sqlx.DB, associationID, categoryID, name string, price string, quantity int) *model.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		AssociationID: associationID,
		CategoryID:    categoryID,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Quantity:      quantity,
		Unit:          "kg",
	}
	_, err := db.NamedExec(`
        INSERT INTO products (id, association_id, category_id, name, description, price, quantity, unit, image_url, created_at, updated_at)
        VALUES (:id, :association_id, :category_id, :name, :description, :price, :quantity, :unit, :image_url, :created_at, :updated_at)`, p)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func ProductQuantity(t *testing.T, db *sqlx.DB, productID string) int {
	t.Helper()
	var q int
	if err := db.Get(&q, db.Rebind(`SELECT quantity FROM products WHERE id = ?`), productID); err != nil {
		t.Fatalf("read quantity: %v", err)
	}
	return q
}

func CountTransactions(t *testing.T, db *sqlx.DB, productID string, typ model.TransactionType) int {
	t.Helper()
	var n int
	if err := db.Get(&n, db.Rebind(`SELECT count(*) FROM transactions WHERE product_id = ? AND type = ?`), productID, typ); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

// Fixture is a database seeded with two associations, each owning one
// category named "Food".
type Fixture struct {
	DB            *sqlx.DB
	Assoc         *model.Association
	Category      *model.Category
	Other         *model.Association
	OtherCategory *model.Category
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	db := NewDB(t)
	f := &Fixture{DB: db}
	f.Assoc = SeedAssociation(t, db, "restos@example.org", "Restos")
	f.Category = SeedCategory(t, db, f.Assoc.ID, "Food")
	f.Other = SeedAssociation(t, db, "secours@example.org", "Secours")
	f.OtherCategory = SeedCategory(t, db, f.Other.ID, "Food")
	return f
}
