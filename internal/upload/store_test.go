package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
)

const (
	assocA = "0b6c1d8e-4a2f-4c55-9f0e-1d2a3b4c5d6e"
	assocB = "7f3e2d1c-0b9a-4876-a5b4-c3d2e1f0a9b8"
)

func TestSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}

	p, err := s.Save(assocA, "Rice.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(p, PublicPrefix+assocA+"/") || !strings.HasSuffix(p, ".png") {
		t.Errorf("public path = %q", p)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(), filepath.FromSlash(strings.TrimPrefix(p, PublicPrefix))))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("stored file = %q, %v", data, err)
	}

	if err := s.Delete(assocA, p); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(assocA, p); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second delete: want NOT_FOUND, got %v", err)
	}
}

func TestSaveRejectsUnknownTypes(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"script.sh", "noext", "page.html"} {
		if _, err := s.Save(assocA, name, strings.NewReader("x")); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Save(%q): want validation error, got %v", name, err)
		}
	}
}

func TestSaveRequiresAssociation(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"", "..", "a/b"} {
		if _, err := s.Save(id, "rice.png", strings.NewReader("x")); err == nil {
			t.Errorf("Save with association %q: want error", id)
		}
	}
}

func TestDeleteOfAnotherAssociationKeepsFile(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.Save(assocA, "rice.png", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(assocB, p); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("cross-association delete: want validation error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), filepath.FromSlash(strings.TrimPrefix(p, PublicPrefix)))); err != nil {
		t.Errorf("file of the other association was removed: %v", err)
	}
}

func TestDeleteRejectsPathsOutsideUploads(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(dir, "secret.png")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{
		"",
		"/etc/passwd",
		"/uploads/",
		"/uploads/x.png",
		"/uploads/" + assocA + "/",
		"/uploads/" + assocA + "/../../secret.png",
		"/uploads/" + assocA + "/a/b.png",
		"uploads/" + assocA + "/x.png",
	} {
		if err := s.Delete(assocA, p); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Delete(%q): want validation error, got %v", p, err)
		}
	}
	if _, err := os.Stat(secret); err != nil {
		t.Errorf("file outside the upload dir was touched: %v", err)
	}
}

func TestCheckImageURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", false},
		{"https://cdn.example.org/rice.png", false},
		{"/uploads/" + assocA + "/rice.png", false},
		{"/uploads/" + assocB + "/rice.png", true},
		{"/uploads/rice.png", true},
		{"/uploads/" + assocA + "/../" + assocB + "/rice.png", true},
	}
	for _, tt := range tests {
		err := CheckImageURL(assocA, tt.url)
		if tt.wantErr != (err != nil) {
			t.Errorf("CheckImageURL(%q) = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
		if err != nil && !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("CheckImageURL(%q): want validation error, got %v", tt.url, err)
		}
	}
}
