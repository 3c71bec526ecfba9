package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	fk := fmt.Errorf("insert product: %w", &pgconn.PgError{Code: "23503"})
	unique := &pgconn.PgError{Code: "23505"}
	check := &pgconn.PgError{Code: "23514"}

	if !IsForeignKeyViolation(fk) {
		t.Error("wrapped 23503 should be a foreign key violation")
	}
	if IsForeignKeyViolation(unique) {
		t.Error("23505 is not a foreign key violation")
	}
	if !IsUniqueViolation(unique) {
		t.Error("23505 should be a unique violation")
	}
	if !IsCheckViolation(check) {
		t.Error("23514 should be a check violation")
	}
	if IsCheckViolation(errors.New("boom")) {
		t.Error("plain errors carry no code")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "donations", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=donations sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
