// Package identitytest provides an in-memory identity.Store for tests.
package identitytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"NoticeBoard/internal/identity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is a mutex-guarded identity.Store. Every returned value is a copy.
type Store struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]identity.Identity

	// FailDelete, when set, is returned by Delete.
	FailDelete error
}

func NewStore() *Store {
	return &Store{users: make(map[primitive.ObjectID]identity.Identity)}
}

// Put stores u as-is, assigning an id when missing. Useful for seeding.
func (s *Store) Put(u identity.Identity) identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := u.Base()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.Email = identity.NormalizeEmail(a.Email)
	s.users[a.ID] = identity.Clone(u)
	return u
}

// Get returns a copy of the stored identity or nil.
func (s *Store) Get(id primitive.ObjectID) identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return identity.Clone(s.users[id])
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) byEmail(email string) identity.Identity {
	email = identity.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Base().Email == email {
			return u
		}
	}
	return nil
}

func (s *Store) Create(_ context.Context, u identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := u.Base()
	a.Email = identity.NormalizeEmail(a.Email)
	if s.byEmail(a.Email) != nil {
		return identity.ErrDuplicateEmail
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	s.users[a.ID] = identity.Clone(u)
	return nil
}

func (s *Store) FindByID(_ context.Context, id primitive.ObjectID) (identity.Identity, error) {
	return s.Get(id), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return identity.Clone(s.byEmail(email)), nil
}

func (s *Store) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[primitive.ObjectID]identity.Identity, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = identity.Clone(u)
		}
	}
	return out, nil
}

func (s *Store) List(_ context.Context, role identity.Role) ([]identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []identity.Identity
	for _, u := range s.users {
		if u.Role() == role {
			out = append(out, identity.Clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base().Email < out[j].Base().Email })
	return out, nil
}

func (s *Store) mutate(id primitive.ObjectID, fn func(u identity.Identity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	fn(u)
	u.Base().UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SetEmailOTP(_ context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return s.mutate(id, func(u identity.Identity) {
		u.Base().EmailVerificationOTP = otp
		u.Base().EmailVerificationOTPExpires = &expires
	})
}

func (s *Store) ClearEmailOTP(_ context.Context, id primitive.ObjectID) error {
	return s.mutate(id, func(u identity.Identity) {
		u.Base().EmailVerificationOTP = ""
		u.Base().EmailVerificationOTPExpires = nil
	})
}

func (s *Store) ConsumeEmailOTP(_ context.Context, email, otp string, now time.Time) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byEmail(email)
	if u == nil {
		return nil, nil
	}
	a := u.Base()
	if a.EmailVerificationOTP == "" || a.EmailVerificationOTP != otp ||
		a.EmailVerificationOTPExpires == nil || !a.EmailVerificationOTPExpires.After(now) {
		return nil, nil
	}
	a.IsEmailVerified = true
	a.EmailVerificationOTP = ""
	a.EmailVerificationOTPExpires = nil
	return identity.Clone(u), nil
}

func (s *Store) SetResetOTP(_ context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return s.mutate(id, func(u identity.Identity) {
		u.Base().PasswordResetOTP = otp
		u.Base().PasswordResetOTPExpires = &expires
	})
}

func (s *Store) ClearResetOTP(_ context.Context, id primitive.ObjectID) error {
	return s.mutate(id, func(u identity.Identity) {
		u.Base().PasswordResetOTP = ""
		u.Base().PasswordResetOTPExpires = nil
	})
}

func (s *Store) ConsumeResetOTP(_ context.Context, email, otp, passwordHash string, now time.Time) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byEmail(email)
	if u == nil {
		return nil, nil
	}
	a := u.Base()
	if a.PasswordResetOTP == "" || a.PasswordResetOTP != otp ||
		a.PasswordResetOTPExpires == nil || !a.PasswordResetOTPExpires.After(now) {
		return nil, nil
	}
	a.PasswordHash = passwordHash
	a.PasswordResetOTP = ""
	a.PasswordResetOTPExpires = nil
	return identity.Clone(u), nil
}

func (s *Store) ClearExpiredOTPs(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		a := u.Base()
		if a.EmailVerificationOTPExpires != nil && !a.EmailVerificationOTPExpires.After(now) {
			a.EmailVerificationOTP, a.EmailVerificationOTPExpires = "", nil
			n++
		}
		if a.PasswordResetOTPExpires != nil && !a.PasswordResetOTPExpires.After(now) {
			a.PasswordResetOTP, a.PasswordResetOTPExpires = "", nil
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	return s.mutate(id, func(u identity.Identity) { u.Base().PasswordHash = passwordHash })
}

func (s *Store) SetFacultyVerified(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.users[id].(*identity.Faculty)
	if !ok {
		return identity.ErrNotFound
	}
	f.IsVerified = true
	return nil
}

func (s *Store) SetAdmin(_ context.Context, id primitive.ObjectID, admin bool) error {
	return s.mutate(id, func(u identity.Identity) { u.Base().IsAdmin = admin })
}

func (s *Store) SetAdminByEmail(_ context.Context, email string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byEmail(email)
	if u == nil {
		return identity.ErrNotFound
	}
	u.Base().IsAdmin = admin
	return nil
}

func (s *Store) Replace(_ context.Context, u identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := u.Base().ID
	if _, ok := s.users[id]; !ok {
		return identity.ErrNotFound
	}
	s.users[id] = identity.Clone(u)
	return nil
}

func (s *Store) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return s.FailDelete
	}
	if _, ok := s.users[id]; !ok {
		return identity.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

var _ identity.Store = (*Store)(nil)
