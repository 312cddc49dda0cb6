package attachment

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"slices"

	"NoticeBoard/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MaxFiles    = 2
	MaxFileSize = 5 << 20
)

// Attachment is a stored file referenced from a notice or event.
type Attachment struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Filename   string             `bson:"filename" json:"filename"`
	StoredName string             `bson:"stored_name" json:"-"`
	URL        string             `bson:"url" json:"url"`
}

// Store saves and deletes attachment bytes.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (Attachment, error)
	Delete(ctx context.Context, storedName string) error
}

// CheckUploads enforces the per-request count and per-file size limits before
// anything is written.
func CheckUploads(files []*multipart.FileHeader) error {
	if len(files) > MaxFiles {
		return apperr.Validation("Too many attachments",
			apperr.FieldError{Field: "attachments", Message: fmt.Sprintf("At most %d files may be attached", MaxFiles)})
	}
	var fields []apperr.FieldError
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			fields = append(fields, apperr.FieldError{
				Field:   "attachments",
				Message: fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, MaxFileSize>>20),
			})
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("Attachment too large", fields...)
	}
	return nil
}

// SaveUploads checks limits, then stores every file. If one save fails the
// files already written are removed again.
func SaveUploads(ctx context.Context, store Store, files []*multipart.FileHeader, logger *zap.Logger) ([]Attachment, error) {
	if err := CheckUploads(files); err != nil {
		return nil, err
	}
	saved := make([]Attachment, 0, len(files))
	for _, fh := range files {
		a, err := saveOne(ctx, store, fh)
		if err != nil {
			DeleteAll(ctx, store, saved, logger)
			return nil, fmt.Errorf("saving attachment %q: %w", fh.Filename, err)
		}
		saved = append(saved, a)
	}
	return saved, nil
}

func saveOne(ctx context.Context, store Store, fh *multipart.FileHeader) (Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return Attachment{}, err
	}
	defer f.Close()
	return store.Save(ctx, fh.Filename, f)
}

// DeleteAll removes each attachment from the store. Failures are logged and
// otherwise ignored; callers have already committed the owning record.
func DeleteAll(ctx context.Context, store Store, attachments []Attachment, logger *zap.Logger) {
	for _, a := range attachments {
		if err := store.Delete(ctx, a.StoredName); err != nil {
			logger.Warn("failed to delete attachment",
				zap.String("file", a.StoredName),
				zap.String("url", a.URL),
				zap.Error(err))
		}
	}
}

// Reconcile splits existing into the attachments whose ids appear in keep and
// the ones that should be removed.
func Reconcile(existing []Attachment, keep []string) (kept, removed []Attachment) {
	for _, a := range existing {
		if slices.Contains(keep, a.ID.Hex()) {
			kept = append(kept, a)
		} else {
			removed = append(removed, a)
		}
	}
	return kept, removed
}
