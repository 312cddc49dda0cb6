package identity

import "NoticeBoard/internal/apperr"

var (
	ErrEmailNotVerified = apperr.Authorization("Please verify your email before logging in")
	ErrPendingApproval  = apperr.Authorization("Your account is pending verification by admin")
)

// Eligible reports whether u may hold a session: the email must be verified
// and a faculty member must also be approved by an admin.
func Eligible(u Identity) error {
	if !u.Base().IsEmailVerified {
		return ErrEmailNotVerified
	}
	if f, ok := u.(*Faculty); ok && !f.IsVerified {
		return ErrPendingApproval
	}
	return nil
}
