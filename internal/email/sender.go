// Package email delivers password-recovery codes for the sandbox server.
// It supports both development mode (log-only) and SMTP.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sender defines the interface for sending emails
type Sender interface {
	SendOTP(ctx context.Context, email, code string, ttl time.Duration) error
}

// Mode values for EMAIL_MODE
const (
	ModeLog  = "log"
	ModeSMTP = "smtp"
)

// Config holds email configuration
type Config struct {
	Mode     string
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// NewConfig creates a new email configuration from environment variables
func NewConfig() *Config {
	port, _ := strconv.Atoi(getEnvOrDefault("SMTP_PORT", "587"))

	return &Config{
		Mode:     getEnvOrDefault("EMAIL_MODE", ModeLog),
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getEnvOrDefault("SMTP_FROM", "noreply@tourdesk.local"),
		FromName: getEnvOrDefault("SMTP_FROM_NAME", "Tour Desk"),
	}
}

// NewSender creates a new email sender based on configuration
func NewSender(cfg *Config, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == ModeSMTP {
		return &smtpSender{config: cfg, logger: logger, send: smtp.SendMail}
	}
	return &logSender{logger: logger}
}

// logSender logs codes instead of mailing them (development mode)
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	s.logger.InfoContext(ctx, "[DEV] password reset code",
		slog.String("email", email),
		slog.String("code", code),
		slog.Duration("expires_in", ttl),
	)
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// smtpSender sends emails via SMTP
type smtpSender struct {
	config *Config
	logger *slog.Logger
	send   sendFunc
}

func (s *smtpSender) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	msg := buildMessage(s.config, email, code, ttl)

	if err := s.send(addr, auth, s.config.From, []string{email}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.InfoContext(ctx, "reset code sent via SMTP", slog.String("email", email))
	return nil
}

func buildMessage(cfg *Config, to, code string, ttl time.Duration) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", cfg.FromName, cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your password reset code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(buildEmailBody(code, ttl))
	return []byte(b.String())
}

func buildEmailBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Password Reset</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #0f766e; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
        <h1 style="color: white; margin: 0;">Password Reset</h1>
    </div>

    <div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px;">
        <p style="font-size: 16px;">Use this code to reset your Tour Desk password:</p>

        <div style="background: white; border: 2px solid #0f766e; border-radius: 8px; padding: 20px; text-align: center; margin: 20px 0;">
            <span style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #0f766e;">%s</span>
        </div>

        <p style="font-size: 14px; color: #666;">
            This code will expire in <strong>%d minutes</strong>.
        </p>

        <p style="font-size: 14px; color: #666;">
            If you didn't request a reset, you can safely ignore this email.
        </p>
    </div>
</body>
</html>
`, code, int(ttl.Minutes()))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
