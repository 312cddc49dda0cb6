package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/verification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrUserExists         = apperr.Conflict("User already exists")
	ErrInvalidCredentials = apperr.Authentication("Invalid credentials")
	ErrWrongPassword      = apperr.Validation("Current password is incorrect")
	ErrUserNotFound       = apperr.NotFound("User not found")
)

// Service handles registration, login and account self-service.
type Service struct {
	users       identity.Store
	otp         *verification.Workflow
	tokens      *TokenIssuer
	emailDomain string
	logger      *zap.Logger
}

func NewService(users identity.Store, otp *verification.Workflow, tokens *TokenIssuer, emailDomain string, logger *zap.Logger) *Service {
	return &Service{
		users:       users,
		otp:         otp,
		tokens:      tokens,
		emailDomain: strings.ToLower(strings.TrimPrefix(emailDomain, "@")),
		logger:      logger,
	}
}

// institutional reports whether email belongs to the configured domain or
// one of its subdomains.
func (s *Service) institutional(email string) bool {
	if s.emailDomain == "" {
		return true
	}
	return strings.HasSuffix(email, "@"+s.emailDomain) || strings.HasSuffix(email, "."+s.emailDomain)
}

func (s *Service) checkNewEmail(ctx context.Context, email string) error {
	if !s.institutional(email) {
		return apperr.Validation(fmt.Sprintf("Email must be a %s email", s.emailDomain),
			apperr.FieldError{Field: "email", Message: "Institutional email required"})
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}
	return nil
}

// register stores u and sends its first verification code. The account is
// kept when delivery fails; the caller can ask for a new code.
func (s *Service) register(ctx context.Context, u identity.Identity, password string) error {
	hash, err := identity.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.Base().PasswordHash = hash
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			return ErrUserExists
		}
		return fmt.Errorf("creating %s: %w", u.Role(), err)
	}
	s.logger.Info("user registered", zap.String("user", u.Base().ID.Hex()), zap.String("role", string(u.Role())))
	return s.otp.IssueEmailOTP(ctx, u)
}

func (s *Service) RegisterStudent(ctx context.Context, req RegisterStudentRequest) error {
	email := identity.NormalizeEmail(req.Email)
	if err := s.checkNewEmail(ctx, email); err != nil {
		return err
	}
	return s.register(ctx, &identity.Student{
		Account:         identity.Account{Email: email},
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Branch:          req.Branch,
		YearOfAdmission: req.YearOfAdmission,
	}, req.Password)
}

func (s *Service) RegisterFaculty(ctx context.Context, req RegisterFacultyRequest) error {
	email := identity.NormalizeEmail(req.Email)
	if err := s.checkNewEmail(ctx, email); err != nil {
		return err
	}
	return s.register(ctx, &identity.Faculty{
		Account:  identity.Account{Email: email},
		FullName: strings.TrimSpace(req.FullName),
		Division: req.Division,
		Post:     strings.TrimSpace(req.Post),
	}, req.Password)
}

// Login checks credentials and eligibility and issues a session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.users.FindByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		identity.BurnPasswordCheck(req.Password)
		return nil, ErrInvalidCredentials
	}
	if !identity.CheckPasswordHash(req.Password, u.Base().PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if err := identity.Eligible(u); err != nil {
		if errors.Is(err, identity.ErrPendingApproval) {
			if qerr := s.otp.EnsureQueued(ctx, u); qerr != nil {
				s.logger.Warn("requeueing faculty failed", zap.String("user", u.Base().ID.Hex()), zap.Error(qerr))
			}
		}
		return nil, err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: identity.ProfileOf(u)}, nil
}

func (s *Service) Me(ctx context.Context, id primitive.ObjectID) (identity.Profile, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return identity.Profile{}, err
	}
	if u == nil {
		return identity.Profile{}, ErrUserNotFound
	}
	return identity.ProfileOf(u), nil
}

func (s *Service) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	_, err := s.otp.ConsumeEmailOTP(ctx, identity.NormalizeEmail(req.Email), req.OTP)
	return err
}

func (s *Service) ResendVerification(ctx context.Context, req EmailRequest) error {
	return s.otp.RequestEmailOTP(ctx, identity.NormalizeEmail(req.Email))
}

func (s *Service) ForgotPassword(ctx context.Context, req EmailRequest) error {
	return s.otp.RequestPasswordReset(ctx, identity.NormalizeEmail(req.Email))
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return s.otp.ResetPassword(ctx, identity.NormalizeEmail(req.Email), req.OTP, req.NewPassword)
}

func (s *Service) ChangePassword(ctx context.Context, id primitive.ObjectID, req ChangePasswordRequest) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if !identity.CheckPasswordHash(req.CurrentPassword, u.Base().PasswordHash) {
		return ErrWrongPassword
	}
	hash, err := identity.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	s.logger.Info("password changed", zap.String("user", id.Hex()))
	return nil
}
