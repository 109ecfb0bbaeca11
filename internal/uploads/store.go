package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
)

var allowedTypes = []string{"image/png", "image/jpeg", "image/webp", "application/pdf"}

// Stored describes a file written by the store. Path is relative to the root.
type Stored struct {
	Path        string
	ContentType string
	Size        int64
}

// LocalStore writes payment proofs under a root directory on local disk.
type LocalStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore creates root when missing.
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("upload root required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("upload size limit must be positive")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

// MaxBytes is the largest accepted upload.
func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save sniffs and stores r under prefix. Oversized or unsupported content is
// rejected before anything touches the disk.
func (s *LocalStore) Save(ctx context.Context, prefix string, r io.Reader) (*Stored, error) {
	if r == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file required")
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeTooLarge, "file too large").
			WithDetails(map[string]any{"max_bytes": s.maxBytes})
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return nil, pkgerrors.New(pkgerrors.CodeUnsupported, "unsupported file type").
			WithDetails(map[string]any{"content_type": mtype.String(), "allowed": allowedTypes})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := sanitizeSegment(prefix)
	rel := filepath.ToSlash(filepath.Join(dir, uuid.NewString()+mtype.Extension()))
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload dir")
	}
	if err := writeAtomic(full, data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload")
	}

	return &Stored{Path: rel, ContentType: mtype.String(), Size: int64(len(data))}, nil
}

// Open returns a reader for a stored file.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open upload")
	}
	return f, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStore) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(path)))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid file path")
	}
	return filepath.Join(s.root, clean), nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sanitizeSegment(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "misc"
	}
	return b.String()
}
