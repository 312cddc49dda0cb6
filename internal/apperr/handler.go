package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response is the JSON body of every error reply.
type Response struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo error handler that renders *Error values
// and hides unexpected failures behind a generic message.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn("failed to write error response", zap.Error(err))
		}
	}
}

func render(err error) (int, Response) {
	var appErr *Error
	if errors.As(err, &appErr) {
		status := Status(appErr.Kind)
		if appErr.Kind == KindServer {
			return status, Response{Error: "Server error"}
		}
		return status, Response{Error: appErr.Message, Fields: appErr.Fields}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, Response{Error: msg}
	}

	return http.StatusInternalServerError, Response{Error: "Server error"}
}
