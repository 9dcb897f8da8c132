package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/marchingbytes/identity-service/app/dto/http"
	"github.com/marchingbytes/identity-service/app/middleware"
	"github.com/marchingbytes/identity-service/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	registration *service.RegistrationService
	sessions     *service.SessionService
}

func NewUserController(registration *service.RegistrationService, sessions *service.SessionService) *UserController {
	return &UserController{registration: registration, sessions: sessions}
}

func (c *UserController) Register(ctx echo.Context) error {
	var req httpdto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email and password are required"})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.registration.Register(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyUsed) {
			logrus.WithField("email", req.Email).Warn("Register failed: email already in use")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "email address already in use"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrIntegrity) {
			logrus.WithField("email", req.Email).Warn("Register failed: concurrent registration")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "email address already in use"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, httpdto.RegisterResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "account created, check your inbox for the verification token",
	})
}

func (c *UserController) ValidateEmail(ctx echo.Context) error {
	var req httpdto.ValidateEmailRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind email validation request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Email == "" || req.Token == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email and token are required"})
	}

	verified, err := c.registration.ValidateEmailToken(ctx.Request().Context(), req.Email, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			logrus.WithField("email", req.Email).Warn("Email validation failed: unknown email")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid email address"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Email validation failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	if !verified {
		logrus.WithField("email", req.Email).Warn("Email validation failed: token mismatch")
		return ctx.JSON(http.StatusOK, httpdto.ValidateEmailResponse{Verified: false, Message: "verification token does not match"})
	}

	logrus.WithField("email", req.Email).Info("Email address verified")
	return ctx.JSON(http.StatusOK, httpdto.ValidateEmailResponse{Verified: true, Message: "email address verified"})
}

func (c *UserController) ResendVerificationEmail(ctx echo.Context) error {
	userID := middleware.UserIDFromContext(ctx)

	logrus.WithField("user_id", userID).Info("Verification email resend requested")
	if err := c.registration.ResendVerificationEmail(ctx.Request().Context(), userID); err != nil {
		if errors.Is(err, service.ErrInvalidUser) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Verification email resend failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "verification email sent"})
}

func (c *UserController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email and password are required"})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	pair, err := c.sessions.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid credentials"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", pair.UserID).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.LoginResponse{
		UserID:       pair.UserID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (c *UserController) Refresh(ctx echo.Context) error {
	var req httpdto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.RefreshToken == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "refresh_token is required"})
	}

	pair, err := c.sessions.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Refresh failed: invalid refresh token")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired token"})
		}
		logrus.WithError(err).Error("Refresh failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", pair.UserID).Info("Access token refreshed")
	return ctx.JSON(http.StatusOK, httpdto.RefreshTokenResponse{AccessToken: pair.AccessToken})
}

func (c *UserController) RequestPasswordReset(ctx echo.Context) error {
	var req httpdto.RequestPasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Email == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email is required"})
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if err := c.sessions.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset request failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	// same response whether or not the address exists
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "if the address is registered, a reset email has been sent"})
}

func (c *UserController) ResetPassword(ctx echo.Context) error {
	var req httpdto.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.UserID == 0 || req.Token == "" || req.NewPassword == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "user_id, token and new_password are required"})
	}

	if err := c.sessions.ResetPassword(ctx.Request().Context(), req.UserID, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			logrus.WithField("user_id", req.UserID).Warn("Password reset failed: invalid token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid or expired reset token"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("user_id", req.UserID).Error("Password reset failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", req.UserID).Info("Password reset successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password has been reset"})
}

func (c *UserController) ChangePassword(ctx echo.Context) error {
	var req httpdto.ChangePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if req.ExistingPassword == "" || req.NewPassword == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "existing_password and new_password are required"})
	}

	userID := middleware.UserIDFromContext(ctx)

	if err := c.sessions.ChangePassword(ctx.Request().Context(), userID, req.ExistingPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidUser) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		if errors.Is(err, service.ErrIncorrectPassword) {
			logrus.WithField("user_id", userID).Warn("Password change failed: incorrect password")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "incorrect password"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Password change failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Password changed")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password changed"})
}
