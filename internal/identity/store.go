package identity

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// Store persists identities. Lookups return (nil, nil) when nothing matches.
type Store interface {
	Create(ctx context.Context, u Identity) error
	FindByID(ctx context.Context, id primitive.ObjectID) (Identity, error)
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Identity, error)
	List(ctx context.Context, role Role) ([]Identity, error)

	SetEmailOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error
	ClearEmailOTP(ctx context.Context, id primitive.ObjectID) error
	// ConsumeEmailOTP atomically marks the email verified and clears the OTP
	// when otp matches and has not expired at now.
	ConsumeEmailOTP(ctx context.Context, email, otp string, now time.Time) (Identity, error)

	SetResetOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error
	ClearResetOTP(ctx context.Context, id primitive.ObjectID) error
	// ConsumeResetOTP atomically stores passwordHash and clears the OTP when
	// otp matches and has not expired at now.
	ConsumeResetOTP(ctx context.Context, email, otp, passwordHash string, now time.Time) (Identity, error)
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)

	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetFacultyVerified(ctx context.Context, id primitive.ObjectID) error
	SetAdmin(ctx context.Context, id primitive.ObjectID, admin bool) error
	SetAdminByEmail(ctx context.Context, email string, admin bool) error
	// Replace swaps the stored document for u, keeping u's id.
	Replace(ctx context.Context, u Identity) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ErrNotFound is returned by mutations that match no document.
var ErrNotFound = errors.New("user not found")
