package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NoticeBoard/internal/access"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func registered(t *testing.T) (*echo.Echo, *access.Policy) {
	t.Helper()
	policy, err := access.NewPolicy()
	require.NoError(t, err)
	e := echo.New()
	RegisterRoutes(e, handlers{Policy: policy, Logger: zap.NewNop()})
	return e, policy
}

func TestRouteTable(t *testing.T) {
	e, _ := registered(t)

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /",
		"POST /api/auth/register/student",
		"POST /api/auth/register/faculty",
		"POST /api/auth/login",
		"GET /api/auth/me",
		"POST /api/auth/verify-email",
		"POST /api/auth/resend-verification",
		"POST /api/auth/forgot-password",
		"POST /api/auth/reset-password",
		"POST /api/auth/change-password",
		"GET /api/notices",
		"GET /api/notices/:id",
		"POST /api/notices",
		"PUT /api/notices/:id",
		"DELETE /api/notices/:id",
		"GET /api/events",
		"GET /api/events/:id",
		"POST /api/events",
		"PUT /api/events/:id",
		"DELETE /api/events/:id",
		"GET /api/admin/users",
		"GET /api/admin/users/:id",
		"PUT /api/admin/users/:id/role",
		"DELETE /api/admin/users/:id",
		"GET /api/admin/verification-requests",
		"PUT /api/admin/verification-requests/:id/approve",
		"PUT /api/admin/verification-requests/:id/reject",
	} {
		assert.True(t, got[want], want)
	}
}

func TestAdminRoutesGrantedToAdminsOnly(t *testing.T) {
	e, policy := registered(t)

	var checked int
	for _, r := range e.Routes() {
		// group middleware registers catch-all not-found routes
		if !strings.HasPrefix(r.Path, "/api/admin/") || strings.HasSuffix(r.Path, "*") {
			continue
		}
		checked++
		ok, err := policy.Allowed(access.SubjectAdmin, r.Path, r.Method)
		require.NoError(t, err)
		assert.True(t, ok, "admin %s %s", r.Method, r.Path)

		for _, role := range []string{"student", "faculty"} {
			ok, err := policy.Allowed(role, r.Path, r.Method)
			require.NoError(t, err)
			assert.False(t, ok, "%s %s %s", role, r.Method, r.Path)
		}
	}
	assert.Equal(t, 7, checked)
}

func TestHealth(t *testing.T) {
	e, _ := registered(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Notice Board API is running")
}
