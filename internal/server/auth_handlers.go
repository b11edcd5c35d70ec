package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"tourdesk/internal/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Messages returned by the auth routes
const (
	MsgInvalidBody         = "Invalid request body"
	MsgLoginSuccess        = "Login successful"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgRegistered          = "User registered successfully"
	MsgUsernameTaken       = "Username already exists"
	MsgEmailTaken          = "Email already registered"
	MsgUserNotFound        = "User not found"
	MsgOTPSent             = "OTP sent to your email"
	MsgOTPVerified         = "OTP verified"
	MsgInvalidOTP          = "Invalid or expired OTP"
	MsgVerificationNeeded  = "OTP verification required"
	MsgPasswordReset       = "Password reset successfully"
	MsgInternalServerError = "Internal server error"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username  string `json:"username" binding:"required,min=3"`
	UserEmail string `json:"useremail" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	UserEmail string `json:"useremail" binding:"required"`
}

type verifyOTPRequest struct {
	OTP       string `json:"otp" binding:"required"`
	UserEmail string `json:"useremail" binding:"required"`
}

type resetPasswordRequest struct {
	UserEmail   string `json:"useremail" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (s *Server) loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	user, err := s.store.UserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}
	if err != nil {
		s.internalError(c, "failed to load user", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		fail(c, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	c.Set("username", user.Username)
	succeed(c, MsgLoginSuccess)
}

func (s *Server) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(c, "failed to hash password", err)
		return
	}

	user := &store.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.UserEmail),
		PasswordHash: string(hash),
	}
	switch err := s.store.CreateUser(c.Request.Context(), user); {
	case errors.Is(err, store.ErrDuplicateUsername):
		fail(c, http.StatusConflict, MsgUsernameTaken)
		return
	case errors.Is(err, store.ErrDuplicateEmail):
		fail(c, http.StatusConflict, MsgEmailTaken)
		return
	case err != nil:
		s.internalError(c, "failed to create user", err)
		return
	}

	c.Set("username", user.Username)
	succeed(c, MsgRegistered)
}

func (s *Server) forgotPasswordHandler(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	ctx := c.Request.Context()

	user, err := s.store.UserByEmail(ctx, req.UserEmail)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, MsgUserNotFound)
		return
	}
	if err != nil {
		s.internalError(c, "failed to load user", err)
		return
	}

	code, err := s.newCode()
	if err != nil {
		s.internalError(c, "failed to generate code", err)
		return
	}
	if err := s.store.SaveResetCode(ctx, user.Email, code, s.now().Add(s.cfg.OTPTTL)); err != nil {
		s.internalError(c, "failed to store code", err)
		return
	}
	if err := s.mailer.SendOTP(ctx, user.Email, code, s.cfg.OTPTTL); err != nil {
		s.internalError(c, "failed to send code", err)
		return
	}

	succeed(c, MsgOTPSent)
}

func (s *Server) verifyOTPHandler(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	err := s.store.VerifyResetCode(c.Request.Context(), req.UserEmail, strings.TrimSpace(req.OTP), s.now())
	if errors.Is(err, store.ErrInvalidCode) {
		fail(c, http.StatusBadRequest, MsgInvalidOTP)
		return
	}
	if err != nil {
		s.internalError(c, "failed to verify code", err)
		return
	}

	succeed(c, MsgOTPVerified)
}

func (s *Server) resetPasswordHandler(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	ctx := c.Request.Context()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(c, "failed to hash password", err)
		return
	}

	err = s.store.ConsumeVerification(ctx, req.UserEmail, s.now())
	if errors.Is(err, store.ErrNotVerified) {
		fail(c, http.StatusBadRequest, MsgVerificationNeeded)
		return
	}
	if err != nil {
		s.internalError(c, "failed to check verification", err)
		return
	}

	err = s.store.UpdatePassword(ctx, req.UserEmail, string(hash))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, MsgUserNotFound)
		return
	}
	if err != nil {
		s.internalError(c, "failed to update password", err)
		return
	}

	succeed(c, MsgPasswordReset)
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	s.logger.ErrorContext(c.Request.Context(), msg,
		slog.String("request_id", c.GetString("request_id")),
		slog.Any("error", err),
	)
	fail(c, http.StatusInternalServerError, MsgInternalServerError)
}

// generateSixDigitCode returns a random code between 100000 and 999999
func generateSixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate secure random number: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
