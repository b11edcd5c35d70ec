package api

import (
	"context"
	"net/http"
)

// Login posts credentials to /auth/login
func (c *Client) Login(ctx context.Context, req LoginRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "login", PathLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "register", PathRegister, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword asks the server to send a one-time code to the email
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "forgot password", PathForgotPassword, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP checks a one-time code for the email
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "verify otp", PathVerifyOTP, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password for the email
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "reset password", PathResetPassword, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping tries the server origin and reports whether anything answered
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/health", nil, "", nil)
}
