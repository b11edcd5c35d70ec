package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tourdesk/internal/api"
	"tourdesk/internal/config"
	"tourdesk/internal/realtime"
	"tourdesk/internal/storage"
	"tourdesk/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type fakeMailer struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (m *fakeMailer) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[email] = code
	return nil
}

type fixture struct {
	srv    *Server
	router http.Handler
	mailer *fakeMailer
	store  store.Store
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	f := &fixture{mailer: &fakeMailer{}, store: store.NewMemory(), clock: time.Now()}
	f.srv = New(&Config{CORSOrigins: []string{"http://localhost:5173"}}, Deps{
		Store:   f.store,
		Storage: disk,
		Mailer:  f.mailer,
		Logger:  slog.New(slog.DiscardHandler),
	})
	f.srv.now = func() time.Time { return f.clock }
	f.srv.newCode = func() (string, error) { return "424242", nil }
	f.router = f.srv.RegisterRoutes()
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Message
}

func (f *fixture) register(t *testing.T, username, email, password string) {
	t.Helper()
	w := f.do(t, http.MethodPost, api.PathRegister, api.RegisterRequest{Username: username, UserEmail: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "alice@example.com", "s3cret")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{"valid", api.LoginRequest{Username: "alice", Password: "s3cret"}, http.StatusOK, MsgLoginSuccess},
		{"wrong password", api.LoginRequest{Username: "alice", Password: "nope"}, http.StatusUnauthorized, MsgInvalidCredentials},
		{"unknown user", api.LoginRequest{Username: "bob", Password: "s3cret"}, http.StatusUnauthorized, MsgInvalidCredentials},
		{"missing field", map[string]string{"username": "alice"}, http.StatusBadRequest, MsgInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, api.PathLogin, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, message(t, w))
		})
	}

	u, err := f.store.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
}

func TestRegister_Conflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "alice@example.com", "pw")

	w := f.do(t, http.MethodPost, api.PathRegister, api.RegisterRequest{Username: "alice", UserEmail: "new@example.com", Password: "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, MsgUsernameTaken, message(t, w))

	w = f.do(t, http.MethodPost, api.PathRegister, api.RegisterRequest{Username: "bob", UserEmail: "alice@example.com", Password: "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, MsgEmailTaken, message(t, w))

	w = f.do(t, http.MethodPost, api.PathRegister, api.RegisterRequest{Username: "carol", UserEmail: "not-an-email", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordRecovery(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "alice@example.com", "old")
	email := "alice@example.com"

	w := f.do(t, http.MethodPost, api.PathForgotPassword, api.ForgotPasswordRequest{UserEmail: "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgUserNotFound, message(t, w))

	// reset without a verified code is refused
	w = f.do(t, http.MethodPost, api.PathResetPassword, api.ResetPasswordRequest{UserEmail: email, NewPassword: "new"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgVerificationNeeded, message(t, w))

	w = f.do(t, http.MethodPost, api.PathForgotPassword, api.ForgotPasswordRequest{UserEmail: email})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MsgOTPSent, message(t, w))
	assert.Equal(t, "424242", f.mailer.codes[email])

	w = f.do(t, http.MethodPost, api.PathVerifyOTP, api.VerifyOTPRequest{OTP: "000000", UserEmail: email})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgInvalidOTP, message(t, w))

	w = f.do(t, http.MethodPost, api.PathVerifyOTP, api.VerifyOTPRequest{OTP: "424242", UserEmail: email})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MsgOTPVerified, message(t, w))

	w = f.do(t, http.MethodPost, api.PathResetPassword, api.ResetPasswordRequest{UserEmail: email, NewPassword: "new"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MsgPasswordReset, message(t, w))

	w = f.do(t, http.MethodPost, api.PathLogin, api.LoginRequest{Username: "alice", Password: "new"})
	assert.Equal(t, http.StatusOK, w.Code)

	// the verification is single use
	w = f.do(t, http.MethodPost, api.PathResetPassword, api.ResetPasswordRequest{UserEmail: email, NewPassword: "again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyOTP_Expired(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "alice@example.com", "old")

	w := f.do(t, http.MethodPost, api.PathForgotPassword, api.ForgotPasswordRequest{UserEmail: "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	f.clock = f.clock.Add(6 * time.Minute)
	w = f.do(t, http.MethodPost, api.PathVerifyOTP, api.VerifyOTPRequest{OTP: "424242", UserEmail: "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgInvalidOTP, message(t, w))
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, api.PathListCategories, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, name := range []string{"Beach", "Hills", "Beach"} {
		w = f.do(t, http.MethodPost, api.PathCreateCategory, map[string]string{"catagoryName": name})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, MsgCategoryCreated, message(t, w))
	}

	w = f.do(t, http.MethodPost, api.PathCreateCategory, map[string]string{"catagoryName": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, api.PathDeleteCategory, map[string]string{"name": "Beach"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MsgCategoryDeleted, message(t, w))

	w = f.do(t, http.MethodGet, api.PathListCategories, nil)
	var list []api.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Hills", list[0].Name)
	assert.Equal(t, "Beach", list[1].Name)
	assert.Contains(t, w.Body.String(), `"catagories":"Hills"`)

	w = f.do(t, http.MethodPost, api.PathDeleteCategory, map[string]string{"name": "Desert"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgCategoryNotFound, message(t, w))
}

func (f *fixture) upload(t *testing.T, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, api.PathUploads, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServe(t *testing.T) {
	f := newFixture(t)

	w := f.upload(t, "my beach.png", "image/png", []byte("png-data"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.FilePath, "/uploads/"))
	assert.True(t, strings.HasSuffix(resp.FilePath, "-my_beach.png"))

	w = f.do(t, http.MethodGet, resp.FilePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-data", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = f.upload(t, "notes.txt", "text/plain", []byte("hi"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgNotImage, message(t, w))

	w = f.do(t, http.MethodPost, api.PathUploads, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/uploads/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func validTour() api.Tour {
	return api.Tour{
		PackageName:  "Island hop",
		Location:     "Maldives",
		Price:        999,
		TotalNights:  4,
		Category:     "Beach",
		Expression:   "good",
		Amenities:    []string{"wifi"},
		Surroundings: []api.Surrounding{{Title: "Reef", Distance: "1km"}},
		Image:        "http://localhost/uploads/x-reef.png",
	}
}

func TestCreateTour(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, api.PathTours, validTour())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgUnknownCategory, message(t, w))

	_, err := f.store.CreateCategory(context.Background(), "Beach")
	require.NoError(t, err)

	w = f.do(t, http.MethodPost, api.PathTours, validTour())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec api.TourRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Island hop", rec.PackageName)
	assert.Equal(t, []api.Surrounding{{Title: "Reef", Distance: "1km"}}, rec.Surroundings)

	w = f.do(t, http.MethodGet, api.PathTours+"/"+rec.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	bad := validTour()
	bad.TotalNights = 0
	w = f.do(t, http.MethodPost, api.PathTours, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad = validTour()
	bad.Expression = "meh"
	w = f.do(t, http.MethodPost, api.PathTours, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	good := validTour()
	good.Expression = "very good"
	w = f.do(t, http.MethodPost, api.PathTours, good)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHealthAndMiddleware(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
	assert.Contains(t, w.Body.String(), `"database":{"status":"up"}`)

	w = f.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodOptions, api.PathLogin, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDMiddleware_ExtractsTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })
	api.InstallTracePropagation()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	var sc trace.SpanContext
	r.GET("/traced", func(c *gin.Context) {
		sc = trace.SpanContextFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/traced", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, sc.IsValid())
	assert.True(t, sc.IsRemote())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
	assert.True(t, sc.IsSampled())
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), RecoveryMiddleware(slog.New(slog.DiscardHandler)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgInternalServerError, message(t, w))
}

func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggingMiddleware(logger))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "x=1", first["query"])
	assert.EqualValues(t, 4, first["response_size"])
	assert.Equal(t, "WARN", second["level"])
	assert.EqualValues(t, http.StatusNotFound, second["status"])
}

// TestClientEndToEnd drives the real api client and realtime checker
// against the sandbox over HTTP and WebSocket.
func TestClientEndToEnd(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := api.NewClient(ts.URL, 5*time.Second)
	_, err := client.Register(ctx, api.RegisterRequest{Username: "alice", UserEmail: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = client.Login(ctx, api.LoginRequest{Username: "alice", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, MsgInvalidCredentials, api.MessageOr(err, ""))

	wsURL, err := config.DeriveWSURL(ts.URL)
	require.NoError(t, err)
	ch, err := realtime.Dial(ctx, wsURL, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer ch.Close()

	checker := realtime.NewChecker(ch, config.DefaultCheckEvent, config.DefaultReplyEvent, slog.New(slog.DiscardHandler), nil)
	defer checker.Close()

	require.NoError(t, checker.Check(ctx, "alice"))
	status, err := checker.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, realtime.StatusTaken, status)

	require.NoError(t, checker.Check(ctx, "brand-new"))
	status, err = checker.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, realtime.StatusAvailable, status)

	_, err = client.CreateCategory(ctx, "Beach")
	require.NoError(t, err)
	up, err := client.Upload(ctx, "reef.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)

	tour := validTour()
	tour.Image = client.FileURL(up.FilePath)
	rec, err := client.CreateTour(ctx, tour)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CHECK_EVENT", "cheak-username")

	cfg := LoadConfigFromEnv()
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "cheak-username", cfg.CheckEvent)
	assert.Equal(t, config.DefaultReplyEvent, cfg.ReplyEvent)
	assert.Equal(t, "./uploads", cfg.UploadDir)

	assert.True(t, originAllowed(cfg.CORSOrigins, "http://b.test"))
	assert.True(t, originAllowed(cfg.CORSOrigins, ""))
	assert.False(t, originAllowed(cfg.CORSOrigins, "http://evil.test"))
}
