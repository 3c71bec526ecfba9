package apperr

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", Validation("validation.name_required", "name is required"), KindValidation},
		{"wrapped not found", fmt.Errorf("update: %w", NotFound("category.not_found", "category not found")), KindNotFound},
		{"plain error", sql.ErrConnDone, KindInternal},
		{"internal", Internal(sql.ErrConnDone), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		http int
		grpc codes.Code
	}{
		{KindValidation, http.StatusBadRequest, codes.InvalidArgument},
		{KindNotFound, http.StatusNotFound, codes.NotFound},
		{KindOutOfStock, http.StatusConflict, codes.FailedPrecondition},
		{KindUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
		{KindInternal, http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.http {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.http)
		}
		if got := GRPCCode(tt.kind); got != tt.grpc {
			t.Errorf("GRPCCode(%s) = %v, want %v", tt.kind, got, tt.grpc)
		}
	}
}

func TestInternalKeepsCause(t *testing.T) {
	err := Internal(sql.ErrConnDone)
	if err.Unwrap() != sql.ErrConnDone {
		t.Fatal("cause lost")
	}
	if err.Error() != "internal error: "+sql.ErrConnDone.Error() {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(Internal(sql.ErrConnDone)); got != "internal error" {
		t.Errorf("internal cause leaked: %q", got)
	}
	if got := PublicMessage(fmt.Errorf("x: %w", Validation("v", "name is required"))); got != "name is required" {
		t.Errorf("PublicMessage() = %q", got)
	}
}
