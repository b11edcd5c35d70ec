package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tourdesk/internal/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, WithLogger(logger.Discard())), srv
}

func TestLogin_PostsCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathLogin, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"username": "alice", "password": "pw"}, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Login successful"}`))
	})

	resp, err := client.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", resp.Message)
}

func TestLogin_PropagatesTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })
	InstallTracePropagation()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)

	var got string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("traceparent")
		_, _ = w.Write([]byte(`{"message":"Login successful"}`))
	})

	_, err := client.Login(ctx, LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", got)
}

func TestAuthEndpoints_WireNames(t *testing.T) {
	var mu sync.Mutex
	got := map[string]map[string]string{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		got[r.URL.Path] = body
		mu.Unlock()
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	ctx := context.Background()

	_, err := client.Register(ctx, RegisterRequest{Username: "bob", UserEmail: "b@x.io", Password: "pw"})
	require.NoError(t, err)
	_, err = client.ForgotPassword(ctx, ForgotPasswordRequest{UserEmail: "b@x.io"})
	require.NoError(t, err)
	_, err = client.VerifyOTP(ctx, VerifyOTPRequest{OTP: "123456", UserEmail: "b@x.io"})
	require.NoError(t, err)
	_, err = client.ResetPassword(ctx, ResetPasswordRequest{UserEmail: "b@x.io", NewPassword: "new"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]string{"username": "bob", "useremail": "b@x.io", "password": "pw"}, got[PathRegister])
	assert.Equal(t, map[string]string{"useremail": "b@x.io"}, got[PathForgotPassword])
	assert.Equal(t, map[string]string{"otp": "123456", "useremail": "b@x.io"}, got[PathVerifyOTP])
	assert.Equal(t, map[string]string{"useremail": "b@x.io", "newPassword": "new"}, got[PathResetPassword])
}

func TestServerErrorMessage(t *testing.T) {
	t.Run("message field", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Username already taken"}`))
		})
		_, err := client.Register(context.Background(), RegisterRequest{})
		require.Error(t, err)

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "Username already taken", MessageOr(err, "fallback"))
	})

	t.Run("error field", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad input"}`))
		})
		_, err := client.Login(context.Background(), LoginRequest{})
		assert.Equal(t, "bad input", MessageOr(err, "fallback"))
	})

	t.Run("no body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := client.Login(context.Background(), LoginRequest{})
		assert.Equal(t, "fallback", MessageOr(err, "fallback"))
		assert.Equal(t, "Request failed with status code 500", Describe(err))
	})
}

func TestTransportFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, WithLogger(logger.Discard()))
	_, err := client.Login(context.Background(), LoginRequest{Username: "a", Password: "b"})
	require.Error(t, err)

	_, mErr := Message(err)
	assert.ErrorIs(t, mErr, ErrNoMessage)
	assert.NotEmpty(t, Describe(err))
}

func TestContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListCategories(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCategories(t *testing.T) {
	var mu sync.Mutex
	var deleted, created string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathListCategories:
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte(`[{"catagories":"Beach","_id":"1"},{"catagories":"Hills","_id":"2"}]`))
		case PathCreateCategory:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			created = body["catagoryName"]
			mu.Unlock()
			_, _ = w.Write([]byte(`{"message":"Category created"}`))
		case PathDeleteCategory:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			deleted = body["name"]
			mu.Unlock()
			_, _ = w.Write([]byte(`{"message":"Category deleted"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	list, err := client.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Category{{Name: "Beach", ID: "1"}, {Name: "Hills", ID: "2"}}, list)

	msg, err := client.CreateCategory(ctx, "Desert")
	require.NoError(t, err)
	assert.Equal(t, "Category created", msg.Message)

	_, err = client.DeleteCategory(ctx, "Beach")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Desert", created)
	assert.Equal(t, "Beach", deleted)
}

func TestListCategories_EmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	list, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpload_Multipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathUploads, r.URL.Path)
		file, header, err := r.FormFile(UploadField)
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "banner.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "PNGDATA", string(data))

		_, _ = w.Write([]byte(`{"filePath":"/uploads/abc-banner.png"}`))
	})

	resp, err := client.Upload(context.Background(), "/tmp/pics/banner.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc-banner.png", resp.FilePath)
	assert.Equal(t, client.BaseURL()+"/uploads/abc-banner.png", client.FileURL(resp.FilePath))
}

func TestUpload_MissingFilePath(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := client.Upload(context.Background(), "a.jpg", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestCreateTour(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathTours, r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Sundarban Escape", body["packageName"])
		assert.Equal(t, float64(3), body["totalNights"])
		assert.Equal(t, []any{"WiFi", "Pool"}, body["amenities"])

		body["_id"] = "t-1"
		_ = json.NewEncoder(w).Encode(body)
	})

	rec, err := client.CreateTour(context.Background(), Tour{
		PackageName: "Sundarban Escape",
		TotalNights: 3,
		Amenities:   []string{"WiFi", "Pool"},
	})
	require.NoError(t, err)
	assert.Equal(t, "t-1", rec.ID)
	assert.Equal(t, "Sundarban Escape", rec.PackageName)
}

func TestFileURL(t *testing.T) {
	client := NewClient("https://server.zaroo.co/", time.Second)
	assert.Equal(t, "https://server.zaroo.co/uploads/a.png", client.FileURL("/uploads/a.png"))
	assert.Equal(t, "https://server.zaroo.co/uploads/a.png", client.FileURL("uploads/a.png"))
	assert.Equal(t, "https://cdn.example/a.png", client.FileURL("https://cdn.example/a.png"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeFor("x.JPG"))
	assert.Equal(t, "image/png", ContentTypeFor("x.png"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("x"))
}
