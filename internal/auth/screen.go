// Package auth implements the login, registration and password recovery
// screens.
//
// Every screen follows the same shape: setters update form state, Submit
// validates locally, performs one API call under the screen's context and
// reports the outcome through the Notifier. After the call returns, state
// changes go through the screen lifecycle so a torn-down screen is left
// untouched.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"tourdesk/internal/api"
	"tourdesk/internal/navigation"
	"tourdesk/internal/notify"
	"tourdesk/internal/screen"
)

// User-facing messages
const (
	MsgAllFieldsRequired    = "All fields are required"
	MsgPasswordsDoNotMatch  = "Passwords do not match"
	MsgPasswordsDontMatch   = "Passwords don't match"
	MsgInvalidEmail         = "Invalid email"
	MsgRegistrationSuccess  = "Registration successful"
	MsgRegistrationFailed   = "Registration failed"
	MsgUsernameAvailable    = "Username available"
	MsgUsernameNotAvailable = "Username not available"
	MsgResendingOTP         = "Resending OTP..."
	MsgOTPResent            = "OTP sent successfully!"
	MsgOTPResendFailed      = "Failed to resend OTP"

	// OTPValidityNotice is shown on the verification screen. The client does
	// not enforce it.
	OTPValidityNotice = "Your OTP is valid for 5 minutes only. Please complete the verification promptly."
)

var (
	// ErrBusy is returned when a submit is attempted while one is in flight
	ErrBusy = screen.ErrBusy
	// ErrSubmitDisabled is returned when registration is submitted before the
	// username has been confirmed available
	ErrSubmitDisabled = errors.New("submit disabled until username is available")
)

// API is the subset of the remote client the auth screens call
type API interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.MessageResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.MessageResponse, error)
	ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) (*api.MessageResponse, error)
	VerifyOTP(ctx context.Context, req api.VerifyOTPRequest) (*api.MessageResponse, error)
	ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (*api.MessageResponse, error)
}

// Deps are shared by all auth screens
type Deps struct {
	API       API
	Notifier  notify.Notifier
	Navigator navigation.Navigator
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// base carries the lifecycle and submit phase common to every screen.
// Lock order is lifecycle then mu; code holding mu never calls into the
// lifecycle.
type base struct {
	deps Deps
	life *screen.Lifecycle

	mu    sync.Mutex
	phase screen.Phase
}

func newBase(ctx context.Context, deps Deps) *base {
	return &base{deps: deps, life: screen.NewLifecycle(ctx)}
}

// Phase returns the submit phase
func (b *base) Phase() screen.Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Loading reports whether a submit is in flight
func (b *base) Loading() bool {
	return b.Phase().Busy()
}

// Alive reports whether the screen is still mounted
func (b *base) Alive() bool {
	return b.life.Alive()
}

// Teardown disposes the screen and cancels its in-flight requests
func (b *base) Teardown() {
	b.life.Teardown()
}

// begin moves the phase to loading
func (b *base) begin() error {
	if !b.life.Alive() {
		return screen.ErrTornDown
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase.Busy() {
		return ErrBusy
	}
	b.phase = screen.PhaseLoading
	return nil
}

// finish settles the phase and runs report while the screen is still
// mounted. It returns screen.ErrTornDown if the screen went away while the
// call was in flight.
func (b *base) finish(err error, report func()) error {
	ran := b.life.Guard(func() {
		b.mu.Lock()
		if err != nil {
			b.phase = screen.PhaseFailed
		} else {
			b.phase = screen.PhaseLoaded
		}
		b.mu.Unlock()
		if report != nil {
			report()
		}
	})
	if !ran {
		if err != nil {
			return errors.Join(screen.ErrTornDown, err)
		}
		return screen.ErrTornDown
	}
	return err
}

// reject reports a local validation failure
func (b *base) reject(err error) error {
	notify.Error(b.deps.Notifier, err.Error())
	return err
}

// successMessage reports the server's message when it sent one
func (b *base) successMessage(resp *api.MessageResponse, fallback string) {
	msg := fallback
	if resp != nil && resp.Message != "" {
		msg = resp.Message
	}
	if msg != "" {
		notify.Success(b.deps.Notifier, msg)
	}
}
