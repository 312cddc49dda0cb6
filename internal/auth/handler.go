package auth

import (
	"net/http"

	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/content"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	service *Service
}

func NewAuthHandler(service *Service) *AuthHandler {
	return &AuthHandler{service: service}
}

var errBadRequest = apperr.Validation("Invalid request")

// bind decodes the body into req and validates it with the echo validator.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errBadRequest
	}
	return c.Validate(req)
}

const registeredMessage = "User registered. Please check your email for OTP verification code."

func (h *AuthHandler) RegisterStudent(c echo.Context) error {
	var req RegisterStudentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.RegisterStudent(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: registeredMessage})
}

func (h *AuthHandler) RegisterFaculty(c echo.Context) error {
	var req RegisterFacultyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.RegisterFaculty(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: registeredMessage})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Me(c echo.Context) error {
	a, err := content.Actor(c)
	if err != nil {
		return err
	}
	profile, err := h.service.Me(c.Request().Context(), a.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.VerifyEmail(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Email verified successfully. You can now log in."})
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.ResendVerification(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "New OTP has been sent to your email"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.ForgotPassword(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "OTP has been sent to your email"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.ResetPassword(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully. You can now log in with your new password."})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	a, err := content.Actor(c)
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.ChangePassword(c.Request().Context(), a.ID, req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}
