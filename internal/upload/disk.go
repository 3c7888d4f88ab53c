package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrOutsideStore = errors.New("reference outside upload directory")

// DiskStore writes uploads into one fixed local directory as
// <unix-ms>-<original-name>. Two uploads sharing a name and a millisecond
// could collide; accepted as a low-probability risk.
type DiskStore struct {
	dir string

	// clock hook for tests
	now func() time.Time
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStore{dir: dir, now: time.Now}, nil
}

func (s *DiskStore) Backend() string { return "disk" }

func (s *DiskStore) Save(ctx context.Context, fh *multipart.FileHeader) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	original := filepath.Base(fh.Filename)
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), original)

	src, err := fh.Open()

	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(s.dir, name)

	dst, err := os.Create(dstPath)

	if err != nil {
		return StoredFile{}, fmt.Errorf("create %s: %w", dstPath, err)
	}

	written, err := io.Copy(dst, src)

	if cErr := dst.Close(); err == nil {
		err = cErr
	}

	if err != nil {
		return StoredFile{}, fmt.Errorf("write %s: %w", dstPath, err)
	}

	return StoredFile{
		Name:         name,
		Ref:          filepath.ToSlash(dstPath),
		OriginalName: original,
		Size:         written,
	}, nil
}

func (s *DiskStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// refs are stored as dir/name; reject anything escaping the directory
	clean := filepath.Clean(filepath.FromSlash(ref))

	rel, err := filepath.Rel(s.dir, clean)

	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, ErrOutsideStore
	}

	return os.Open(clean)
}
