package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, "wss://server.zaroo.co/ws", cfg.WSURL)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultCheckEvent, cfg.CheckEvent)
	assert.Equal(t, DefaultReplyEvent, cfg.ReplyEvent)
	assert.Equal(t, StoreFile, cfg.SessionStore)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("TOURDESK_SERVER_URL", "http://localhost:8080/")
	t.Setenv("TOURDESK_CHECK_EVENT", "cheak-username")
	t.Setenv("TOURDESK_HTTP_TIMEOUT", "2s")

	cfg, err := Load(viper.New(), newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.WSURL)
	assert.Equal(t, "cheak-username", cfg.CheckEvent)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("TOURDESK_SERVER_URL", "http://env.example")

	cfg, err := Load(viper.New(), newFlags(t, "--server-url", "http://flag.example"))
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example", cfg.ServerURL)
}

func TestLoad_InvalidCollectsAllProblems(t *testing.T) {
	_, err := Load(viper.New(), newFlags(t,
		"--ws-url", "http://nope",
		"--session-store", "disk",
		"--http-timeout", "0s",
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyWSURL)
	assert.Contains(t, err.Error(), KeySessionStore)
	assert.Contains(t, err.Error(), KeyHTTPTimeout)
}

func TestDeriveWSURL(t *testing.T) {
	ws, err := DeriveWSURL("http://127.0.0.1:9000/base/")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:9000/base/ws", ws)

	_, err = DeriveWSURL("ftp://example.com")
	assert.Error(t, err)
}

func TestValidateEnv(t *testing.T) {
	t.Setenv("PRESENT_VAR", "x")
	assert.NoError(t, ValidateEnv([]string{"PRESENT_VAR"}))

	err := ValidateEnv([]string{"PRESENT_VAR", "TOURDESK_SURELY_MISSING"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOURDESK_SURELY_MISSING")
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SOME_DURATION", "3s")
	t.Setenv("SOME_INT", "nope")

	assert.Equal(t, 3*time.Second, GetEnvDuration("SOME_DURATION", time.Second))
	assert.Equal(t, 7, GetEnvInt("SOME_INT", 7))
	assert.Equal(t, "fallback", GetEnvOrDefault("TOURDESK_SURELY_MISSING", "fallback"))
}
