// Package imagestore persists uploaded images on the local filesystem under
// one directory per logical kind (item, user, storage). Files are staged to
// a temporary name first and only renamed into place once the owning
// database row is committed, so a failed commit never leaves an orphaned
// file behind.
package imagestore

import (
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kind is the logical image category, doubling as the subdirectory name.
type Kind string

const (
	KindItem    Kind = "item"
	KindUser    Kind = "user"
	KindStorage Kind = "storage"
)

const defaultUserImage = "default_user_image.png"

// DefaultUserImage is served for users without a profile image.
func DefaultUserImage() string {
	return defaultUserImage
}

// IsValidName reports whether a stored filename is usable: non-empty and
// free of path traversal.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, "/\\") && name != "." && name != ".."
}

// Store writes and removes image files below a root directory.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Path returns the on-disk location of a stored image.
func (s *Store) Path(kind Kind, filename string) string {
	return filepath.Join(s.root, string(kind), filename)
}

// Staged is an upload written to a temporary file, waiting for the owning
// database row to commit.
type Staged struct {
	Filename string
	tempPath string
	finalDir string
	done     bool
}

// Stage copies the upload into a temp file next to its final location and
// assigns it a unique filename preserving the original extension.
func (s *Store) Stage(kind Kind, file *multipart.FileHeader) (*Staged, error) {
	dir := filepath.Join(s.root, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ext := filepath.Ext(file.Filename)
	filename := uuid.NewString() + ext

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	return &Staged{
		Filename: filename,
		tempPath: tmp.Name(),
		finalDir: dir,
	}, nil
}

// Commit renames the staged file into place. Call after the database row
// referencing Filename is durably committed.
func (st *Staged) Commit() error {
	if st.done {
		return nil
	}
	st.done = true
	return os.Rename(st.tempPath, filepath.Join(st.finalDir, st.Filename))
}

// Discard removes the staged file. Safe to defer alongside Commit: a
// committed stage is a no-op.
func (st *Staged) Discard() {
	if st.done {
		return
	}
	st.done = true
	_ = os.Remove(st.tempPath)
}

// Delete removes a stored image. A file that is already gone is not an
// error: the database row is the authoritative state.
func (s *Store) Delete(kind Kind, filename string) error {
	if !IsValidName(filename) {
		return nil
	}
	err := os.Remove(s.Path(kind, filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
