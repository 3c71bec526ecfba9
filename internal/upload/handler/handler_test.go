package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"

	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/model"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/internal/upload"
	"github.com/fekuna/omnipos-donation-service/locales"
	"github.com/fekuna/omnipos-donation-service/pkg/i18n"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

const (
	assocA = "0b6c1d8e-4a2f-4c55-9f0e-1d2a3b4c5d6e"
	assocB = "7f3e2d1c-0b9a-4876-a5b4-c3d2e1f0a9b8"

	associationHeader = "X-Association-ID"
)

// withAssociation stands in for the auth middleware: the association id
// comes from a request header.
func withAssociation(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := c.Request().Header.Get(associationHeader); id != "" {
			ctx := auth.WithAssociation(c.Request().Context(), &model.Association{ID: id})
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	store, err := upload.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tr := i18n.New(language.English)
	if err := tr.LoadFS(locales.FS, "*.json"); err != nil {
		t.Fatal(err)
	}
	h := NewUploadHandler(store, respond.New(tr, logger.NewNop()), logger.NewNop())

	e := echo.New()
	h.Register(e.Group("/api/v1", withAssociation))
	h.Static(e)
	return e
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	w.Close()
	return &buf, w.FormDataContentType()
}

func uploadFile(t *testing.T, e *echo.Echo, associationID string) uploadResponse {
	t.Helper()
	body, contentType := multipartBody(t, "rice.jpg", "jpeg-bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(associationHeader, associationID)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var uploaded uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatal(err)
	}
	return uploaded
}

func deletePath(e *echo.Echo, associationID, path string) int {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/uploads", strings.NewReader(`{"path":"`+path+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if associationID != "" {
		req.Header.Set(associationHeader, associationID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestUploadServeAndDelete(t *testing.T) {
	e := newServer(t)

	uploaded := uploadFile(t, e, assocA)
	if !uploaded.Success || !strings.HasPrefix(uploaded.Path, "/uploads/"+assocA+"/") {
		t.Fatalf("unexpected response %+v", uploaded)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, uploaded.Path, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "jpeg-bytes" {
		t.Errorf("serve status = %d, body %q", rec.Code, rec.Body.String())
	}

	if code := deletePath(e, assocA, uploaded.Path); code != http.StatusOK {
		t.Errorf("delete status = %d", code)
	}
	if code := deletePath(e, assocA, uploaded.Path); code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", code)
	}
}

func TestDeleteUploadOfAnotherAssociation(t *testing.T) {
	e := newServer(t)
	uploaded := uploadFile(t, e, assocA)

	tests := []struct {
		name          string
		associationID string
		want          int
	}{
		{"other association", assocB, http.StatusBadRequest},
		{"no association", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := deletePath(e, tt.associationID, uploaded.Path); code != tt.want {
				t.Errorf("delete status = %d, want %d", code, tt.want)
			}
		})
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, uploaded.Path, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("file should still be served, status = %d", rec.Code)
	}
}

func TestUploadValidation(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader(""))
	req.Header.Set(associationHeader, assocA)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", rec.Code)
	}
	var failed respond.ErrorBody
	json.Unmarshal(rec.Body.Bytes(), &failed)
	if failed.Error != "No file was provided" {
		t.Errorf("error = %q", failed.Error)
	}

	body, contentType := multipartBody(t, "notes.txt", "hello")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(associationHeader, assocA)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", rec.Code)
	}

	if code := deletePath(e, assocA, "/etc/passwd"); code != http.StatusBadRequest {
		t.Errorf("outside path status = %d, want 400", code)
	}
}
