// Package upload stores product images on local disk and serves them
// under /uploads.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
)

// PublicPrefix is the URL path files are served under.
const PublicPrefix = "/uploads/"

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Store struct {
	dir string
}

// NewStore creates dir when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes r under a fresh name in the folder of associationID,
// keeping the extension of name, and returns the public path of the file.
func (s *Store) Save(associationID, name string, r io.Reader) (string, error) {
	if !validSegment(associationID) {
		return "", apperr.NoAssociation()
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", apperr.Validation("upload.invalid_type", "unsupported file type")
	}

	folder := filepath.Join(s.dir, associationID)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", apperr.Internal(fmt.Errorf("create association upload dir: %w", err))
	}
	file := uuid.New().String() + ext
	f, err := os.OpenFile(filepath.Join(folder, file), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("create upload: %w", err))
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", apperr.Internal(fmt.Errorf("write upload: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", apperr.Internal(fmt.Errorf("close upload: %w", err))
	}
	return PublicPrefix + associationID + "/" + file, nil
}

// Delete removes a file previously returned by Save for the same
// association. Paths outside the association folder are rejected.
func (s *Store) Delete(associationID, publicPath string) error {
	file, ok := resolve(associationID, publicPath)
	if !ok {
		return apperr.Validation("upload.invalid_path", "invalid file path")
	}
	err := os.Remove(filepath.Join(s.dir, associationID, file))
	if errors.Is(err, fs.ErrNotExist) {
		return apperr.NotFound("upload.not_found", "file not found")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete upload: %w", err))
	}
	return nil
}

// CheckImageURL accepts an empty or external image URL and any upload of
// associationID. A path under PublicPrefix that belongs to another
// association, or is malformed, is a validation error.
func CheckImageURL(associationID, imageURL string) error {
	if !strings.HasPrefix(imageURL, PublicPrefix) {
		return nil
	}
	if _, ok := resolve(associationID, imageURL); !ok {
		return apperr.Validation("upload.invalid_path", "invalid file path")
	}
	return nil
}

// resolve returns the file name of publicPath when it lies directly in
// the folder of associationID.
func resolve(associationID, publicPath string) (string, bool) {
	if !validSegment(associationID) {
		return "", false
	}
	prefix := PublicPrefix + associationID + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(publicPath, prefix)
	if !validSegment(name) {
		return "", false
	}
	return name, true
}

func validSegment(name string) bool {
	return name != "" && name == path.Base(name) && name != "." && name != ".." && !strings.Contains(name, "\\")
}
