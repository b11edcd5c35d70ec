// Package server is a sandbox implementation of the remote tour API the
// dashboard talks to. It serves the same routes, payloads and messages so
// the client can be exercised end to end without the hosted backend.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"tourdesk/internal/config"
	"tourdesk/internal/email"
	"tourdesk/internal/storage"
	"tourdesk/internal/store"

	"github.com/gorilla/websocket"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg     *Config
	store   store.Store
	storage storage.Service
	mailer  email.Sender
	logger  *slog.Logger

	upgrader websocket.Upgrader
	now      func() time.Time
	newCode  func() (string, error)
}

// Config holds server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	DatabaseURL string
	UploadDir   string
	CORSOrigins []string
	OTPTTL      time.Duration
	CheckEvent  string
	ReplyEvent  string
}

// LoadConfigFromEnv loads server configuration from environment variables
func LoadConfigFromEnv() *Config {
	return &Config{
		Port:         config.GetEnvInt("PORT", 8080),
		ReadTimeout:  config.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: config.GetEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:  config.GetEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		UploadDir:    config.GetEnvOrDefault("UPLOAD_DIR", "./uploads"),
		CORSOrigins:  splitList(config.GetEnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),
		OTPTTL:       config.GetEnvDuration("OTP_TTL", 5*time.Minute),
		CheckEvent:   config.GetEnvOrDefault("CHECK_EVENT", config.DefaultCheckEvent),
		ReplyEvent:   config.GetEnvOrDefault("REPLY_EVENT", config.DefaultReplyEvent),
	}
}

// Deps are the backends a Server works against
type Deps struct {
	Store   store.Store
	Storage storage.Service
	Mailer  email.Sender
	Logger  *slog.Logger
}

// New creates a Server over deps
func New(cfg *Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.CheckEvent == "" {
		cfg.CheckEvent = config.DefaultCheckEvent
	}
	if cfg.ReplyEvent == "" {
		cfg.ReplyEvent = config.DefaultReplyEvent
	}

	return &Server{
		cfg:     cfg,
		store:   deps.Store,
		storage: deps.Storage,
		mailer:  deps.Mailer,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return originAllowed(cfg.CORSOrigins, r.Header.Get("Origin")) },
		},
		now:     time.Now,
		newCode: generateSixDigitCode,
	}
}

// NewHTTPServer configures an http.Server for s
func NewHTTPServer(cfg *Config, s *Server) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// originAllowed accepts requests without an Origin (non-browser clients)
func originAllowed(origins []string, origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
