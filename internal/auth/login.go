package auth

import (
	"context"
	"fmt"

	"tourdesk/internal/api"
	"tourdesk/internal/forms"
	"tourdesk/internal/notify"
	"tourdesk/internal/session"
)

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

var requiredOnly = []forms.Rule{
	{Tag: "required", Message: MsgAllFieldsRequired},
}

// Login signs an existing user in and remembers the username
type Login struct {
	*base
	session *session.Session
	form    loginForm
}

// NewLogin mounts the login screen
func NewLogin(ctx context.Context, deps Deps, sess *session.Session) *Login {
	return &Login{base: newBase(ctx, deps), session: sess}
}

func (s *Login) SetUsername(v string) {
	s.mu.Lock()
	s.form.Username = v
	s.mu.Unlock()
}

func (s *Login) SetPassword(v string) {
	s.mu.Lock()
	s.form.Password = v
	s.mu.Unlock()
}

// Submit signs in with the current form
func (s *Login) Submit() error {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	if err := forms.Check(form, requiredOnly, MsgAllFieldsRequired); err != nil {
		return s.reject(err)
	}
	if err := s.begin(); err != nil {
		return err
	}

	ctx := s.life.Context()
	resp, err := s.deps.API.Login(ctx, api.LoginRequest{Username: form.Username, Password: form.Password})
	if err == nil && s.session != nil {
		if serr := s.session.Login(ctx, form.Username); serr != nil {
			s.deps.logger().Warn("Failed to persist username", "error", serr)
			err = fmt.Errorf("login succeeded but username was not saved: %w", serr)
			return s.finish(err, func() { notify.Error(s.deps.Notifier, err.Error()) })
		}
	}

	return s.finish(err, func() {
		if err != nil {
			s.deps.logger().Debug("Login failed", "username", form.Username, "error", err)
			notify.Error(s.deps.Notifier, api.Describe(err))
			return
		}
		s.successMessage(resp, "")
	})
}
