// Package verificationtest provides an in-memory verification.Repository.
package verificationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"NoticeBoard/internal/verification"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Repository struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]verification.Request

	// FailNextCreate, when set, is returned by the next CreateIfAbsent call
	// and then cleared.
	FailNextCreate error
}

func NewRepository() *Repository {
	return &Repository{requests: make(map[primitive.ObjectID]verification.Request)}
}

func (r *Repository) CreateIfAbsent(_ context.Context, req *verification.Request) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNextCreate; err != nil {
		r.FailNextCreate = nil
		return false, err
	}
	for _, existing := range r.requests {
		if existing.FacultyID == req.FacultyID {
			return false, nil
		}
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	r.requests[req.ID] = *req
	return true, nil
}

func (r *Repository) FindByID(_ context.Context, id primitive.ObjectID) (*verification.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *Repository) FindByFaculty(_ context.Context, facultyID primitive.ObjectID) (*verification.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.FacultyID == facultyID {
			return &req, nil
		}
	}
	return nil, nil
}

func (r *Repository) ListPending(context.Context) ([]*verification.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*verification.Request
	for _, req := range r.requests {
		if req.Status == verification.StatusPending {
			req := req
			out = append(out, &req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return verification.ErrRequestNotFound
	}
	delete(r.requests, id)
	return nil
}

func (r *Repository) DeleteByFaculty(_ context.Context, facultyID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.requests {
		if req.FacultyID == facultyID {
			delete(r.requests, id)
		}
	}
	return nil
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

var _ verification.Repository = (*Repository)(nil)
