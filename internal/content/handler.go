package content

import (
	"NoticeBoard/internal/access"
	"NoticeBoard/internal/apperr"

	"github.com/labstack/echo/v4"
)

var ErrBadRequest = apperr.Validation("Invalid request")

// Actor returns the caller resolved by the authentication middleware.
func Actor(c echo.Context) (access.Actor, error) {
	a, ok := access.FromContext(c.Request().Context())
	if !ok {
		return access.Actor{}, apperr.Authentication("No token, authorization denied")
	}
	return a, nil
}

// BindPaging reads page and limit from the query string.
func BindPaging(b *echo.ValueBinder, p *Paging) *echo.ValueBinder {
	return b.Int("page", &p.Page).Int("limit", &p.Limit)
}

// BindForm decodes a JSON or form body into in and reads any uploaded files.
func BindForm(c echo.Context, in interface{}) (Upload, error) {
	if err := c.Bind(in); err != nil {
		return Upload{}, ErrBadRequest
	}
	up, err := ReadUpload(c)
	if err != nil {
		return Upload{}, ErrBadRequest
	}
	return up, nil
}
