package verification

import (
	"context"
	"errors"
	"fmt"

	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/identity"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrRequestNotFound = apperr.NotFound("Verification request not found")
	ErrFacultyNotFound = apperr.NotFound("Faculty not found")
)

// Queue is the admin approval track for faculty accounts. Every request is
// pending until an admin resolves it, and resolving removes it.
type Queue struct {
	repo   Repository
	users  identity.Store
	logger *zap.Logger
}

func NewQueue(repo Repository, users identity.Store, logger *zap.Logger) *Queue {
	return &Queue{repo: repo, users: users, logger: logger}
}

// Ensure puts f in the queue unless it is already there.
func (q *Queue) Ensure(ctx context.Context, f *identity.Faculty) (bool, error) {
	created, err := q.repo.CreateIfAbsent(ctx, &Request{
		FacultyID: f.ID,
		Notes:     fmt.Sprintf("New faculty registration for %s", f.FullName),
		Status:    StatusPending,
	})
	if err != nil {
		return false, fmt.Errorf("queueing faculty %s: %w", f.ID.Hex(), err)
	}
	if created {
		q.logger.Info("faculty queued for approval", zap.String("faculty", f.ID.Hex()))
	}
	return created, nil
}

// ListPending returns pending requests, newest first, with faculty details.
// Requests whose faculty no longer exists are skipped.
func (q *Queue) ListPending(ctx context.Context) ([]RequestView, error) {
	requests, err := q.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.FacultyID)
	}
	users, err := q.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(requests))
	for _, r := range requests {
		f, ok := users[r.FacultyID].(*identity.Faculty)
		if !ok {
			q.logger.Warn("verification request without faculty", zap.String("request", r.ID.Hex()))
			continue
		}
		views = append(views, RequestView{Request: *r, Faculty: facultyView(f)})
	}
	return views, nil
}

func (q *Queue) load(ctx context.Context, id primitive.ObjectID) (*Request, error) {
	req, err := q.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// Approve marks the faculty verified and removes the request. A request whose
// faculty is gone is removed as well and reported as ErrFacultyNotFound.
func (q *Queue) Approve(ctx context.Context, id primitive.ObjectID) error {
	req, err := q.load(ctx, id)
	if err != nil {
		return err
	}
	if err := q.users.SetFacultyVerified(ctx, req.FacultyID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			if err := q.repo.Delete(ctx, req.ID); err != nil {
				return fmt.Errorf("removing orphaned request: %w", err)
			}
			q.logger.Warn("dropped request for missing faculty", zap.String("request", req.ID.Hex()))
			return ErrFacultyNotFound
		}
		return fmt.Errorf("approving faculty: %w", err)
	}
	if err := q.repo.Delete(ctx, req.ID); err != nil {
		return fmt.Errorf("removing approved request: %w", err)
	}
	q.logger.Info("faculty approved", zap.String("faculty", req.FacultyID.Hex()))
	return nil
}

// Reject deletes the faculty account and the request. It cannot be undone.
func (q *Queue) Reject(ctx context.Context, id primitive.ObjectID) error {
	req, err := q.load(ctx, id)
	if err != nil {
		return err
	}
	if err := q.users.Delete(ctx, req.FacultyID); err != nil && !errors.Is(err, identity.ErrNotFound) {
		return fmt.Errorf("deleting rejected faculty: %w", err)
	}
	if err := q.repo.Delete(ctx, req.ID); err != nil {
		return fmt.Errorf("removing rejected request: %w", err)
	}
	q.logger.Info("faculty rejected", zap.String("faculty", req.FacultyID.Hex()))
	return nil
}

// Forget drops any request belonging to facultyID, e.g. when the account is
// deleted or converted to a student.
func (q *Queue) Forget(ctx context.Context, facultyID primitive.ObjectID) error {
	return q.repo.DeleteByFaculty(ctx, facultyID)
}
