// Package admin implements the admin-only user management operations.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/content"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/verification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound = apperr.NotFound("User not found")
	ErrSameRole     = apperr.Validation("User already has this role")
	ErrAlreadyAdmin = apperr.Validation("User is already an admin")
)

type Service struct {
	users  identity.Store
	queue  *verification.Queue
	logger *zap.Logger
	now    func() time.Time
}

func NewService(users identity.Store, queue *verification.Queue, logger *zap.Logger) *Service {
	return &Service{users: users, queue: queue, logger: logger, now: time.Now}
}

func profiles(us []identity.Identity) []identity.Profile {
	out := make([]identity.Profile, 0, len(us))
	for _, u := range us {
		out = append(out, identity.ProfileOf(u))
	}
	return out
}

func (s *Service) ListUsers(ctx context.Context) (*UserList, error) {
	students, err := s.users.List(ctx, identity.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	faculty, err := s.users.List(ctx, identity.RoleFaculty)
	if err != nil {
		return nil, fmt.Errorf("listing faculty: %w", err)
	}
	return &UserList{Students: profiles(students), Faculty: profiles(faculty)}, nil
}

func (s *Service) load(ctx context.Context, id string) (identity.Identity, error) {
	oid, err := content.ParseID(id, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*UserDetail, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: identity.ProfileOf(u), Role: u.Role()}, nil
}

// ChangeRole grants the admin flag or converts the user to the other variant.
// Conversion replaces the stored document under the same id, so content the
// user authored keeps pointing at them.
func (s *Service) ChangeRole(ctx context.Context, id string, req ChangeRoleRequest) (identity.Profile, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return identity.Profile{}, err
	}

	if req.Role == TargetAdmin {
		if u.Base().IsAdmin {
			return identity.Profile{}, ErrAlreadyAdmin
		}
		if err := s.users.SetAdmin(ctx, u.Base().ID, true); err != nil {
			return identity.Profile{}, fmt.Errorf("granting admin: %w", err)
		}
		u.Base().IsAdmin = true
		s.logger.Info("admin granted", zap.String("user", u.Base().ID.Hex()))
		return identity.ProfileOf(u), nil
	}

	target := identity.Role(req.Role)
	if target == u.Role() {
		return identity.Profile{}, ErrSameRole
	}
	converted, err := s.convert(u, req)
	if err != nil {
		return identity.Profile{}, err
	}
	if err := s.users.Replace(ctx, converted); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.Profile{}, ErrUserNotFound
		}
		return identity.Profile{}, fmt.Errorf("converting user: %w", err)
	}
	if u.Role() == identity.RoleFaculty {
		if err := s.queue.Forget(ctx, u.Base().ID); err != nil {
			s.logger.Warn("failed to drop verification request", zap.String("user", u.Base().ID.Hex()), zap.Error(err))
		}
	}
	s.logger.Info("role changed",
		zap.String("user", u.Base().ID.Hex()),
		zap.String("from", string(u.Role())),
		zap.String("to", string(target)))
	return identity.ProfileOf(converted), nil
}

func (s *Service) convert(u identity.Identity, req ChangeRoleRequest) (identity.Identity, error) {
	account := *u.Base()
	account.UpdatedAt = s.now().UTC()

	switch v := u.(type) {
	case *identity.Faculty:
		branch := req.Branch
		if branch == "" {
			branch = v.Division
		}
		if !identity.IsBranch(branch) {
			return nil, apperr.Validation("Validation failed", apperr.FieldError{
				Field:   "branch",
				Message: fmt.Sprintf("%s is not a student branch; supply a branch", v.Division),
			})
		}
		first, last, _ := strings.Cut(strings.TrimSpace(v.FullName), " ")
		return &identity.Student{
			Account:         account,
			FirstName:       first,
			LastName:        strings.TrimSpace(last),
			Branch:          branch,
			YearOfAdmission: s.now().Year(),
		}, nil
	case *identity.Student:
		return &identity.Faculty{
			Account:    account,
			FullName:   v.DisplayName(),
			Division:   v.Branch,
			Post:       "Faculty",
			IsVerified: true,
		}, nil
	default:
		return nil, fmt.Errorf("unknown identity variant %T", u)
	}
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, u.Base().ID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deleting user: %w", err)
	}
	if u.Role() == identity.RoleFaculty {
		if err := s.queue.Forget(ctx, u.Base().ID); err != nil {
			s.logger.Warn("failed to drop verification request", zap.String("user", u.Base().ID.Hex()), zap.Error(err))
		}
	}
	s.logger.Info("user deleted", zap.String("user", u.Base().ID.Hex()))
	return nil
}

func (s *Service) VerificationRequests(ctx context.Context) ([]verification.RequestView, error) {
	return s.queue.ListPending(ctx)
}

func requestID(id string) (primitive.ObjectID, error) {
	return content.ParseID(id, verification.ErrRequestNotFound)
}

func (s *Service) Approve(ctx context.Context, id string) error {
	oid, err := requestID(id)
	if err != nil {
		return err
	}
	return s.queue.Approve(ctx, oid)
}

func (s *Service) Reject(ctx context.Context, id string) error {
	oid, err := requestID(id)
	if err != nil {
		return err
	}
	return s.queue.Reject(ctx, oid)
}
