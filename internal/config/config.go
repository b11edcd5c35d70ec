// Package config loads client configuration from flags, environment and .env files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the client reads,
// e.g. TOURDESK_SERVER_URL.
const EnvPrefix = "TOURDESK"

// Defaults
const (
	DefaultServerURL    = "https://server.zaroo.co"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultCheckEvent   = "check-username"
	DefaultReplyEvent   = "username-availability"
	DefaultCheckTimeout = 5 * time.Second
	StoreFile           = "file"
	StoreRedis          = "redis"
)

// Keys
const (
	KeyServerURL     = "server-url"
	KeyWSURL         = "ws-url"
	KeyHTTPTimeout   = "http-timeout"
	KeyCheckEvent    = "check-event"
	KeyReplyEvent    = "reply-event"
	KeyCheckTimeout  = "check-timeout"
	KeySessionStore  = "session-store"
	KeySessionFile   = "session-file"
	KeyRedisAddr     = "redis-addr"
	KeyRedisPassword = "redis-password"
	KeyRedisDB       = "redis-db"
)

// Config holds everything the client needs to reach the remote server
type Config struct {
	ServerURL    string
	WSURL        string
	HTTPTimeout  time.Duration
	CheckEvent   string
	ReplyEvent   string
	CheckTimeout time.Duration

	SessionStore  string
	SessionFile   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// AddFlags registers the client flags on fs with their defaults
func AddFlags(fs *pflag.FlagSet) {
	fs.String(KeyServerURL, DefaultServerURL, "Base origin of the remote API")
	fs.String(KeyWSURL, "", "Real-time channel URL (derived from server-url when empty)")
	fs.Duration(KeyHTTPTimeout, DefaultHTTPTimeout, "Timeout for each HTTP call")
	fs.String(KeyCheckEvent, DefaultCheckEvent, "Event name used to ask for username availability")
	fs.String(KeyReplyEvent, DefaultReplyEvent, "Event name of the availability reply")
	fs.Duration(KeyCheckTimeout, DefaultCheckTimeout, "How long to wait for an availability reply")
	fs.String(KeySessionStore, StoreFile, "Where the logged-in username is kept (file|redis)")
	fs.String(KeySessionFile, defaultSessionFile(), "Session file path for the file store")
	fs.String(KeyRedisAddr, "localhost:6379", "Redis address for the redis store")
	fs.String(KeyRedisPassword, "", "Redis password")
	fs.Int(KeyRedisDB, 0, "Redis database number")
}

// Load resolves configuration with precedence flags > environment > defaults.
// fs may be nil, in which case only environment and defaults apply.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	if fs == nil {
		fs = pflag.NewFlagSet("tourdesk", pflag.ContinueOnError)
		AddFlags(fs)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ServerURL:     strings.TrimRight(v.GetString(KeyServerURL), "/"),
		WSURL:         v.GetString(KeyWSURL),
		HTTPTimeout:   v.GetDuration(KeyHTTPTimeout),
		CheckEvent:    v.GetString(KeyCheckEvent),
		ReplyEvent:    v.GetString(KeyReplyEvent),
		CheckTimeout:  v.GetDuration(KeyCheckTimeout),
		SessionStore:  strings.ToLower(v.GetString(KeySessionStore)),
		SessionFile:   v.GetString(KeySessionFile),
		RedisAddr:     v.GetString(KeyRedisAddr),
		RedisPassword: v.GetString(KeyRedisPassword),
		RedisDB:       v.GetInt(KeyRedisDB),
	}

	if cfg.WSURL == "" {
		ws, err := DeriveWSURL(cfg.ServerURL)
		if err != nil {
			return nil, err
		}
		cfg.WSURL = ws
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DeriveWSURL maps an http(s) origin to the ws(s) endpoint of the real-time channel
func DeriveWSURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", KeyServerURL, serverURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("invalid %s %q: scheme must be http or https", KeyServerURL, serverURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tourdesk-session.json"
	}
	return filepath.Join(home, ".tourdesk", "session.json")
}
