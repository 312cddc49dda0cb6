// Package attachmenttest provides an in-memory attachment.Store.
package attachmenttest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"NoticeBoard/internal/attachment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu    sync.Mutex
	files map[string][]byte
	seq   int

	// FailDelete makes Delete return an error for every file.
	FailDelete bool
	// FailSaveAfter makes Save fail once this many files have been saved; 0 disables it.
	FailSaveAfter int
}

func NewStore() *Store {
	return &Store{files: make(map[string][]byte)}
}

func (s *Store) Save(_ context.Context, filename string, r io.Reader) (attachment.Attachment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return attachment.Attachment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaveAfter > 0 && s.seq >= s.FailSaveAfter {
		return attachment.Attachment{}, fmt.Errorf("disk full")
	}
	s.seq++
	stored := fmt.Sprintf("file-%d", s.seq)
	s.files[stored] = data
	return attachment.Attachment{
		ID:         primitive.NewObjectID(),
		Filename:   filename,
		StoredName: stored,
		URL:        "http://files.test/uploads/" + stored,
	}, nil
}

func (s *Store) Delete(_ context.Context, storedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return fmt.Errorf("permission denied")
	}
	delete(s.files, storedName)
	return nil
}

// Put seeds a stored file and returns its attachment record.
func (s *Store) Put(filename string) attachment.Attachment {
	a, _ := s.Save(context.Background(), filename, nopReader{})
	return a
}

func (s *Store) Has(storedName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[storedName]
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, io.EOF }

var _ attachment.Store = (*Store)(nil)
