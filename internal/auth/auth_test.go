package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"NoticeBoard/internal/access"
	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/auth"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/identity/identitytest"
	"NoticeBoard/internal/notification/notificationtest"
	"NoticeBoard/internal/validation"
	"NoticeBoard/internal/verification"
	"NoticeBoard/internal/verification/verificationtest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	users    *identitytest.Store
	requests *verificationtest.Repository
	mail     *notificationtest.Recorder
	queue    *verification.Queue
	tokens   *auth.TokenIssuer
	service  *auth.Service
	echo     *echo.Echo
}

func newEnv() *env {
	logger := zap.NewNop()
	e := &env{
		users:    identitytest.NewStore(),
		requests: verificationtest.NewRepository(),
		mail:     &notificationtest.Recorder{},
		tokens:   auth.NewTokenIssuer("test-secret", time.Hour),
	}
	e.queue = verification.NewQueue(e.requests, e.users, logger)
	workflow := verification.NewWorkflow(e.users, e.queue, e.mail, verification.Options{}, logger)
	e.service = auth.NewService(e.users, workflow, e.tokens, "cusat.ac.in", logger)

	h := auth.NewAuthHandler(e.service)
	e.echo = echo.New()
	e.echo.Validator = validation.New()
	e.echo.HTTPErrorHandler = apperr.NewHTTPErrorHandler(logger)
	g := e.echo.Group("/api/auth")
	g.POST("/register/student", h.RegisterStudent)
	g.POST("/register/faculty", h.RegisterFaculty)
	g.POST("/login", h.Login)
	g.POST("/verify-email", h.VerifyEmail)
	g.POST("/resend-verification", h.ResendVerification)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/reset-password", h.ResetPassword)
	// Stands in for the authentication middleware.
	withActor := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get("X-Test-User")
			if u, _ := e.users.FindByEmail(c.Request().Context(), id); u != nil {
				ctx := access.NewContext(c.Request().Context(), access.Actor{ID: u.Base().ID, Role: u.Role()})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
	g.GET("/me", h.Me, withActor)
	g.POST("/change-password", h.ChangePassword, withActor)
	return e
}

func (e *env) do(t *testing.T, method, path string, body interface{}, user string) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	e.echo.ServeHTTP(rec, req)
	return rec
}

var otpPattern = regexp.MustCompile(`\b(\d{6})\b`)

func (e *env) otpFor(t *testing.T, email string) string {
	t.Helper()
	msg, ok := e.mail.Last(email)
	require.True(t, ok)
	m := otpPattern.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2)
	return m[1]
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperr.Response {
	t.Helper()
	var res apperr.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

var facultyBody = map[string]interface{}{
	"email":    "A@cusat.ac.in",
	"password": "secret1",
	"fullName": "Dr. A",
	"division": "Computer Science",
	"post":     "Professor",
}

func TestFacultyLifecycle(t *testing.T) {
	e := newEnv()

	rec := e.do(t, http.MethodPost, "/api/auth/register/faculty", facultyBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	u, err := e.users.FindByEmail(context.Background(), "a@cusat.ac.in")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.False(t, u.Base().IsEmailVerified)

	login := map[string]string{"email": "a@cusat.ac.in", "password": "secret1"}
	rec = e.do(t, http.MethodPost, "/api/auth/login", login, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Please verify your email before logging in", decodeError(t, rec).Error)

	otp := e.otpFor(t, "a@cusat.ac.in")
	rec = e.do(t, http.MethodPost, "/api/auth/verify-email", map[string]string{"email": "a@cusat.ac.in", "otp": otp}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	pending, err := e.queue.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, verification.StatusPending, pending[0].Status)

	rec = e.do(t, http.MethodPost, "/api/auth/login", login, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Your account is pending verification by admin", decodeError(t, rec).Error)

	require.NoError(t, e.queue.Approve(context.Background(), pending[0].ID))
	assert.Equal(t, 0, e.requests.Len())

	rec = e.do(t, http.MethodPost, "/api/auth/login", login, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, identity.RoleFaculty, res.User.Role)
	require.NotNil(t, res.User.IsVerified)
	assert.True(t, *res.User.IsVerified)

	claims, err := e.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.Base().ID.Hex(), claims.Subject)
	assert.Equal(t, identity.RoleFaculty, claims.Role)
}

func TestLoginRequeuesUnqueuedFaculty(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	hash, err := identity.HashPassword("secret1")
	require.NoError(t, err)
	e.users.Put(&identity.Faculty{
		Account:  identity.Account{Email: "b@cusat.ac.in", PasswordHash: hash, IsEmailVerified: true},
		FullName: "Dr. B", Division: "Physics", Post: "Lecturer",
	})

	e.requests.FailNextCreate = errors.New("transient db error")
	_, err = e.service.Login(ctx, auth.LoginRequest{Email: "b@cusat.ac.in", Password: "secret1"})
	assert.ErrorIs(t, err, identity.ErrPendingApproval)
	assert.Equal(t, 0, e.requests.Len())

	_, err = e.service.Login(ctx, auth.LoginRequest{Email: "b@cusat.ac.in", Password: "secret1"})
	assert.ErrorIs(t, err, identity.ErrPendingApproval)
	assert.Equal(t, 1, e.requests.Len())

	_, err = e.service.Login(ctx, auth.LoginRequest{Email: "b@cusat.ac.in", Password: "secret1"})
	assert.ErrorIs(t, err, identity.ErrPendingApproval)
	assert.Equal(t, 1, e.requests.Len())
}

func TestRegisterRejections(t *testing.T) {
	e := newEnv()

	rec := e.do(t, http.MethodPost, "/api/auth/register/student", map[string]interface{}{
		"email": "not-an-email", "password": "123", "firstName": "", "lastName": "K",
		"branch": "Astrology", "yearOfAdmission": 1990,
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeError(t, rec)
	fields := map[string]string{}
	for _, f := range res.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Please enter a valid email", fields["email"])
	assert.Equal(t, "password must be at least 6 characters long", fields["password"])
	assert.Equal(t, "firstName is required", fields["firstName"])
	assert.Equal(t, "Invalid branch", fields["branch"])
	assert.Equal(t, "Invalid year of admission", fields["yearOfAdmission"])

	outside := map[string]interface{}{}
	for k, v := range facultyBody {
		outside[k] = v
	}
	outside["email"] = "someone@gmail.com"
	rec = e.do(t, http.MethodPost, "/api/auth/register/faculty", outside, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, e.users.Len())

	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/auth/register/faculty", facultyBody, "").Code)
	rec = e.do(t, http.MethodPost, "/api/auth/register/faculty", facultyBody, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decodeError(t, rec).Error)
}

func TestRegisterAcrossVariantsIsUnique(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	require.NoError(t, e.service.RegisterFaculty(ctx, auth.RegisterFacultyRequest{
		Email: "x@cusat.ac.in", Password: "secret1", FullName: "X", Division: "Physics", Post: "Lecturer",
	}))
	err := e.service.RegisterStudent(ctx, auth.RegisterStudentRequest{
		Email: "X@cusat.ac.in", Password: "secret1", FirstName: "X", LastName: "Y",
		Branch: "Physics", YearOfAdmission: 2021,
	})
	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func seedStudent(t *testing.T, e *env, email, password string) identity.Identity {
	t.Helper()
	hash, err := identity.HashPassword(password)
	require.NoError(t, err)
	return e.users.Put(&identity.Student{
		Account:   identity.Account{Email: email, PasswordHash: hash, IsEmailVerified: true},
		FirstName: "Asha", LastName: "K", Branch: "Computer Science", YearOfAdmission: 2022,
	})
}

func TestLoginFailures(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seedStudent(t, e, "asha@cusat.ac.in", "secret1")

	_, err := e.service.Login(ctx, auth.LoginRequest{Email: "nobody@cusat.ac.in", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = e.service.Login(ctx, auth.LoginRequest{Email: "asha@cusat.ac.in", Password: "wrong!"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	res, err := e.service.Login(ctx, auth.LoginRequest{Email: " ASHA@cusat.ac.in ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", res.User.FirstName)
	assert.Nil(t, res.User.IsVerified)
}

func TestMeAndChangePassword(t *testing.T) {
	e := newEnv()
	seedStudent(t, e, "asha@cusat.ac.in", "secret1")

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/auth/me", nil, "").Code)

	rec := e.do(t, http.MethodGet, "/api/auth/me", nil, "asha@cusat.ac.in")
	require.Equal(t, http.StatusOK, rec.Code)
	var profile identity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "asha@cusat.ac.in", profile.Email)
	assert.Equal(t, identity.RoleStudent, profile.Role)

	rec = e.do(t, http.MethodPost, "/api/auth/change-password",
		map[string]string{"currentPassword": "nope", "newPassword": "secret2"}, "asha@cusat.ac.in")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", decodeError(t, rec).Error)

	rec = e.do(t, http.MethodPost, "/api/auth/change-password",
		map[string]string{"currentPassword": "secret1", "newPassword": "secret2"}, "asha@cusat.ac.in")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := e.service.Login(context.Background(), auth.LoginRequest{Email: "asha@cusat.ac.in", Password: "secret2"})
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv()
	seedStudent(t, e, "asha@cusat.ac.in", "secret1")

	rec := e.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "asha@cusat.ac.in"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	otp := e.otpFor(t, "asha@cusat.ac.in")

	rec = e.do(t, http.MethodPost, "/api/auth/reset-password",
		map[string]string{"email": "asha@cusat.ac.in", "otp": otp, "newPassword": "12345"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/auth/reset-password",
		map[string]string{"email": "asha@cusat.ac.in", "otp": otp, "newPassword": "brandnew"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/auth/reset-password",
		map[string]string{"email": "asha@cusat.ac.in", "otp": otp, "newPassword": "again123"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired OTP", decodeError(t, rec).Error)

	_, err := e.service.Login(context.Background(), auth.LoginRequest{Email: "asha@cusat.ac.in", Password: "brandnew"})
	assert.NoError(t, err)
}

func TestResendVerification(t *testing.T) {
	e := newEnv()
	rec := e.do(t, http.MethodPost, "/api/auth/resend-verification", map[string]string{"email": "ghost@cusat.ac.in"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seedStudent(t, e, "asha@cusat.ac.in", "secret1")
	rec = e.do(t, http.MethodPost, "/api/auth/resend-verification", map[string]string{"email": "asha@cusat.ac.in"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is already verified", decodeError(t, rec).Error)
}

func TestTokenVerify(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	u := &identity.Faculty{Account: identity.Account{IsAdmin: true}}
	u.ID = primitive.NewObjectID()

	token, err := issuer.Issue(u)
	require.NoError(t, err)
	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = auth.NewTokenIssuer("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.NewTokenIssuer("secret", -time.Minute).Issue(u)
	require.NoError(t, err)
	_, err = issuer.Verify(expired)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
