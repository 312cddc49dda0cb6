package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DiskStore keeps files in a local directory that the HTTP server exposes
// under /uploads.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	stored := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, stored)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Attachment{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return Attachment{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Attachment{}, err
	}

	return Attachment{
		ID:         primitive.NewObjectID(),
		Filename:   filepath.Base(filename),
		StoredName: stored,
		URL:        s.baseURL + "/uploads/" + stored,
	}, nil
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *DiskStore) Delete(_ context.Context, storedName string) error {
	name := filepath.Base(storedName)
	if name != storedName || name == "." || name == "" {
		return fmt.Errorf("invalid stored name %q", storedName)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

var _ Store = (*DiskStore)(nil)
