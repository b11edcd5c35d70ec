package auth

import (
	"context"

	"tourdesk/internal/api"
	"tourdesk/internal/forms"
	"tourdesk/internal/notify"
	"tourdesk/internal/realtime"
)

type registerForm struct {
	Username string `form:"username" validate:"required"`
	Email    string `form:"useremail" validate:"required,basicemail"`
	Password string `form:"password" validate:"required"`
	Confirm  string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

var registerRules = []forms.Rule{
	{Tag: "required", Message: MsgAllFieldsRequired},
	{Tag: "eqfield", Message: MsgPasswordsDoNotMatch},
	{Tag: forms.TagBasicEmail, Message: MsgInvalidEmail},
}

// Events names the realtime events used for username checks
type Events struct {
	Check string
	Reply string
}

// Register creates an account. Submit stays disabled until the realtime
// channel confirms the current username is available.
type Register struct {
	*base
	checker *realtime.Checker

	form         registerForm
	checking     bool
	availability string
}

// NewRegister mounts the registration screen and subscribes to availability
// replies on emitter for the screen's lifetime.
func NewRegister(ctx context.Context, deps Deps, emitter realtime.Emitter, events Events) *Register {
	s := &Register{base: newBase(ctx, deps)}
	s.checker = realtime.NewChecker(emitter, events.Check, events.Reply, deps.logger(), s.onAvailability)
	s.life.OnTeardown(s.checker.Close)
	return s
}

func (s *Register) onAvailability(_ string, status realtime.Status) {
	s.life.Guard(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.checking = status == realtime.StatusChecking
		switch status {
		case realtime.StatusAvailable:
			s.availability = MsgUsernameAvailable
		case realtime.StatusTaken:
			s.availability = MsgUsernameNotAvailable
		}
	})
}

// SetUsername updates the username and starts an availability check when it
// is long enough
func (s *Register) SetUsername(ctx context.Context, v string) error {
	s.mu.Lock()
	s.form.Username = v
	s.mu.Unlock()
	return s.checker.Check(ctx, v)
}

func (s *Register) SetEmail(v string) {
	s.mu.Lock()
	s.form.Email = v
	s.mu.Unlock()
}

func (s *Register) SetPassword(v string) {
	s.mu.Lock()
	s.form.Password = v
	s.mu.Unlock()
}

func (s *Register) SetConfirmPassword(v string) {
	s.mu.Lock()
	s.form.Confirm = v
	s.mu.Unlock()
}

// Checking reports whether an availability check is outstanding
func (s *Register) Checking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checking
}

// AvailabilityMessage is the status line under the username field
func (s *Register) AvailabilityMessage() string {
	// the checker wakes waiters before the change callback runs
	if s.life.Alive() {
		switch _, status := s.checker.Status(); status {
		case realtime.StatusAvailable:
			return MsgUsernameAvailable
		case realtime.StatusTaken:
			return MsgUsernameNotAvailable
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availability
}

// WaitAvailability blocks until the outstanding check settles
func (s *Register) WaitAvailability(ctx context.Context) (realtime.Status, error) {
	return s.checker.Wait(ctx)
}

// CanSubmit reports whether the submit control is enabled
func (s *Register) CanSubmit() bool {
	return !s.Loading() && s.checker.Available()
}

// Submit registers the account
func (s *Register) Submit() error {
	if !s.CanSubmit() {
		return ErrSubmitDisabled
	}

	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	if err := forms.Check(form, registerRules, MsgAllFieldsRequired); err != nil {
		return s.reject(err)
	}
	if err := s.begin(); err != nil {
		return err
	}

	resp, err := s.deps.API.Register(s.life.Context(), api.RegisterRequest{
		Username:  form.Username,
		UserEmail: form.Email,
		Password:  form.Password,
	})
	return s.finish(err, func() {
		if err != nil {
			notify.Error(s.deps.Notifier, api.MessageOr(err, MsgRegistrationFailed))
			return
		}
		s.successMessage(resp, MsgRegistrationSuccess)
	})
}
