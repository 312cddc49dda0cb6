package verification

import (
	"context"
	"fmt"
	"time"

	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/notification"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound        = apperr.NotFound("User not found")
	ErrAlreadyVerified     = apperr.Validation("Email is already verified")
	ErrInvalidOrExpiredOTP = apperr.Validation("Invalid or expired OTP")
	errDeliveryMessage     = "Email could not be sent"
)

// Workflow issues and consumes the emailed one-time codes for both the
// email-verification and password-reset tracks.
type Workflow struct {
	users      identity.Store
	queue      *Queue
	sender     notification.Sender
	adminEmail string
	logger     *zap.Logger
	now        func() time.Time
	generate   func() (string, error)
}

type Options struct {
	// AdminEmail receives a notice when a faculty member joins the queue.
	AdminEmail string
}

func NewWorkflow(users identity.Store, queue *Queue, sender notification.Sender, opts Options, logger *zap.Logger) *Workflow {
	return &Workflow{
		users:      users,
		queue:      queue,
		sender:     sender,
		adminEmail: opts.AdminEmail,
		logger:     logger,
		now:        time.Now,
		generate:   GenerateOTP,
	}
}

// IssueEmailOTP stores a fresh verification code for u, replacing any earlier
// one, and emails it. If delivery fails the code is cleared again.
func (w *Workflow) IssueEmailOTP(ctx context.Context, u identity.Identity) error {
	a := u.Base()
	otp, err := w.generate()
	if err != nil {
		return err
	}
	if err := w.users.SetEmailOTP(ctx, a.ID, otp, w.now().Add(OTPLifetime)); err != nil {
		return fmt.Errorf("storing email otp: %w", err)
	}
	if err := w.sender.Send(ctx, notification.EmailVerificationOTP(a.Email, otp)); err != nil {
		w.logger.Error("verification email failed", zap.String("email", a.Email), zap.Error(err))
		if clearErr := w.users.ClearEmailOTP(ctx, a.ID); clearErr != nil {
			w.logger.Error("failed to clear undelivered otp", zap.String("email", a.Email), zap.Error(clearErr))
		}
		return apperr.Delivery(errDeliveryMessage, err)
	}
	return nil
}

// RequestEmailOTP re-sends a verification code to an unverified account.
func (w *Workflow) RequestEmailOTP(ctx context.Context, email string) error {
	u, err := w.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if u.Base().IsEmailVerified {
		if err := w.EnsureQueued(ctx, u); err != nil {
			return err
		}
		return ErrAlreadyVerified
	}
	return w.IssueEmailOTP(ctx, u)
}

// ConsumeEmailOTP verifies the email when otp matches and is unexpired. The
// code is cleared in the same write, so it can be used at most once. A
// faculty member is queued for admin approval on first verification.
func (w *Workflow) ConsumeEmailOTP(ctx context.Context, email, otp string) (identity.Identity, error) {
	u, err := w.users.ConsumeEmailOTP(ctx, email, otp, w.now())
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidOrExpiredOTP
	}

	if err := w.EnsureQueued(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureQueued puts an email-verified faculty member who is still awaiting
// approval into the admin queue. It is a no-op for everyone else, so callers
// may use it to repair a verification whose queueing step failed.
func (w *Workflow) EnsureQueued(ctx context.Context, u identity.Identity) error {
	f, ok := u.(*identity.Faculty)
	if !ok || !f.IsEmailVerified || f.IsVerified {
		return nil
	}
	created, err := w.queue.Ensure(ctx, f)
	if err != nil {
		return err
	}
	if created {
		w.notifyAdmin(ctx, f)
	}
	return nil
}

func (w *Workflow) notifyAdmin(ctx context.Context, f *identity.Faculty) {
	if w.adminEmail == "" {
		return
	}
	msg := notification.FacultyPendingApproval(w.adminEmail, f.FullName, f.Email)
	if err := w.sender.Send(ctx, msg); err != nil {
		w.logger.Warn("admin notification failed", zap.String("faculty", f.ID.Hex()), zap.Error(err))
	}
}

// RequestPasswordReset emails a reset code, replacing any earlier one.
func (w *Workflow) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := w.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	a := u.Base()
	otp, err := w.generate()
	if err != nil {
		return err
	}
	if err := w.users.SetResetOTP(ctx, a.ID, otp, w.now().Add(OTPLifetime)); err != nil {
		return fmt.Errorf("storing reset otp: %w", err)
	}
	if err := w.sender.Send(ctx, notification.PasswordResetOTP(a.Email, otp)); err != nil {
		w.logger.Error("password reset email failed", zap.String("email", a.Email), zap.Error(err))
		if clearErr := w.users.ClearResetOTP(ctx, a.ID); clearErr != nil {
			w.logger.Error("failed to clear undelivered otp", zap.String("email", a.Email), zap.Error(clearErr))
		}
		return apperr.Delivery(errDeliveryMessage, err)
	}
	return nil
}

// ResetPassword overwrites the password when otp matches and is unexpired.
func (w *Workflow) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	hash, err := identity.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u, err := w.users.ConsumeResetOTP(ctx, email, otp, hash, w.now())
	if err != nil {
		return err
	}
	if u == nil {
		return ErrInvalidOrExpiredOTP
	}
	w.logger.Info("password reset", zap.String("user", u.Base().ID.Hex()))
	return nil
}
