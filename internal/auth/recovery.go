package auth

import (
	"context"
	"sync"

	"tourdesk/internal/api"
	"tourdesk/internal/forms"
	"tourdesk/internal/navigation"
	"tourdesk/internal/notify"
)

type emailForm struct {
	Email string `form:"useremail" validate:"required"`
}

// ForgotPassword requests a one-time code for an email address
type ForgotPassword struct {
	*base
	form emailForm
}

// NewForgotPassword mounts the request-code screen
func NewForgotPassword(ctx context.Context, deps Deps) *ForgotPassword {
	return &ForgotPassword{base: newBase(ctx, deps)}
}

func (s *ForgotPassword) SetEmail(v string) {
	s.mu.Lock()
	s.form.Email = v
	s.mu.Unlock()
}

// Submit sends the code and moves on to verification
func (s *ForgotPassword) Submit() error {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	if err := forms.Check(form, requiredOnly, MsgAllFieldsRequired); err != nil {
		return s.reject(err)
	}
	if err := s.begin(); err != nil {
		return err
	}

	resp, err := s.deps.API.ForgotPassword(s.life.Context(), api.ForgotPasswordRequest{UserEmail: form.Email})
	err = s.finish(err, func() {
		if err != nil {
			notify.Error(s.deps.Notifier, api.Describe(err))
			return
		}
		s.successMessage(resp, "")
	})
	if err != nil {
		return err
	}
	return s.deps.Navigator.Navigate(navigation.WithEmail(navigation.RouteOTPVerification, form.Email))
}

type otpForm struct {
	OTP string `form:"otp" validate:"required"`
}

// OtpVerification checks the code sent to the email carried in the route
type OtpVerification struct {
	*base
	email string
	form  otpForm

	resendMu  sync.Mutex
	resending bool
}

// NewOtpVerification mounts the verification screen for email
func NewOtpVerification(ctx context.Context, deps Deps, email string) *OtpVerification {
	return &OtpVerification{base: newBase(ctx, deps), email: email}
}

// Email is the address carried from the previous screen
func (s *OtpVerification) Email() string {
	return s.email
}

func (s *OtpVerification) SetOTP(v string) {
	s.mu.Lock()
	s.form.OTP = v
	s.mu.Unlock()
}

// Notice is the informational validity text
func (s *OtpVerification) Notice() string {
	return OTPValidityNotice
}

// Resending reports whether a resend is in flight
func (s *OtpVerification) Resending() bool {
	s.resendMu.Lock()
	defer s.resendMu.Unlock()
	return s.resending
}

// Submit verifies the code and moves on to the reset screen
func (s *OtpVerification) Submit() error {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	if err := forms.Check(form, requiredOnly, MsgAllFieldsRequired); err != nil {
		return s.reject(err)
	}
	if err := s.begin(); err != nil {
		return err
	}

	resp, err := s.deps.API.VerifyOTP(s.life.Context(), api.VerifyOTPRequest{OTP: form.OTP, UserEmail: s.email})
	err = s.finish(err, func() {
		if err != nil {
			notify.Error(s.deps.Notifier, api.Describe(err))
			return
		}
		s.successMessage(resp, "")
	})
	if err != nil {
		return err
	}
	return s.deps.Navigator.Navigate(navigation.WithEmail(navigation.RouteResetPassword, s.email))
}

// Resend asks for a new code without leaving the screen. It has its own
// in-flight flag, independent of Submit.
func (s *OtpVerification) Resend() error {
	s.resendMu.Lock()
	if s.resending {
		s.resendMu.Unlock()
		return ErrBusy
	}
	s.resending = true
	s.resendMu.Unlock()

	defer func() {
		s.life.Guard(func() {
			s.resendMu.Lock()
			s.resending = false
			s.resendMu.Unlock()
		})
	}()

	msgs := notify.PromiseMessages{Loading: MsgResendingOTP, Success: MsgOTPResent, Error: MsgOTPResendFailed}
	return notify.Track(s.deps.Notifier, msgs, func() error {
		_, err := s.deps.API.ForgotPassword(s.life.Context(), api.ForgotPasswordRequest{UserEmail: s.email})
		if err != nil {
			s.deps.logger().Debug("OTP resend failed", "email", s.email, "error", err)
		}
		return err
	})
}

type resetForm struct {
	NewPassword string `form:"newPassword" validate:"required"`
	Confirm     string `form:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

var resetRules = []forms.Rule{
	{Tag: "required", Message: MsgAllFieldsRequired},
	{Tag: "eqfield", Message: MsgPasswordsDontMatch},
}

// ResetPassword sets a new password for the email carried in the route
type ResetPassword struct {
	*base
	email string
	form  resetForm

	showPassword bool
	showConfirm  bool
}

// NewResetPassword mounts the reset screen for email
func NewResetPassword(ctx context.Context, deps Deps, email string) *ResetPassword {
	return &ResetPassword{base: newBase(ctx, deps), email: email}
}

// Email is the address carried from the previous screen
func (s *ResetPassword) Email() string {
	return s.email
}

func (s *ResetPassword) SetNewPassword(v string) {
	s.mu.Lock()
	s.form.NewPassword = v
	s.mu.Unlock()
}

func (s *ResetPassword) SetConfirmPassword(v string) {
	s.mu.Lock()
	s.form.Confirm = v
	s.mu.Unlock()
}

// TogglePasswordVisibility flips whether the new password is shown
func (s *ResetPassword) TogglePasswordVisibility() {
	s.mu.Lock()
	s.showPassword = !s.showPassword
	s.mu.Unlock()
}

// ToggleConfirmVisibility flips whether the confirmation is shown
func (s *ResetPassword) ToggleConfirmVisibility() {
	s.mu.Lock()
	s.showConfirm = !s.showConfirm
	s.mu.Unlock()
}

// Visibility returns whether each field is shown in clear text
func (s *ResetPassword) Visibility() (password, confirm bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showPassword, s.showConfirm
}

// Submit sets the new password
func (s *ResetPassword) Submit() error {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	if err := forms.Check(form, resetRules, MsgAllFieldsRequired); err != nil {
		return s.reject(err)
	}
	if err := s.begin(); err != nil {
		return err
	}

	resp, err := s.deps.API.ResetPassword(s.life.Context(), api.ResetPasswordRequest{
		UserEmail:   s.email,
		NewPassword: form.NewPassword,
	})
	return s.finish(err, func() {
		if err != nil {
			notify.Error(s.deps.Notifier, api.Describe(err))
			return
		}
		s.successMessage(resp, "")
	})
}
