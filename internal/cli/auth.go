package cli

import (
	"context"
	"fmt"

	"tourdesk/internal/auth"
	"tourdesk/internal/navigation"
	"tourdesk/internal/notify"
	"tourdesk/internal/realtime"

	"github.com/spf13/cobra"
)

// MsgCheckTimedOut is shown when no availability reply arrives in time
const MsgCheckTimedOut = "Could not confirm username availability"

func (a *App) loginCommand() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the username",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			s := auth.NewLogin(cmd.Context(), a.authDeps(), a.sess)
			defer s.Teardown()

			s.SetUsername(username)
			s.SetPassword(password)
			if err := s.Submit(); err != nil {
				return err
			}
			a.printf("Next: tourdesk dashboard\n")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	return cmd
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the username stored at login",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			name, err := a.sess.Username(cmd.Context())
			if err != nil {
				return err
			}
			if name == "" {
				a.printf("Not logged in\n")
				return nil
			}
			a.printf("%s\n", name)
			return nil
		}),
	}
}

func (a *App) registerCommand() *cobra.Command {
	var username, email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account once the username is confirmed available",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ch, err := a.dial(ctx, a.cfg.WSURL, a.logger)
			if err != nil {
				notify.Error(a.notifier, MsgCheckTimedOut)
				return err
			}
			defer ch.Close()

			s := auth.NewRegister(ctx, a.authDeps(), ch, auth.Events{Check: a.cfg.CheckEvent, Reply: a.cfg.ReplyEvent})
			defer s.Teardown()

			s.SetEmail(email)
			s.SetPassword(password)
			s.SetConfirmPassword(confirm)
			if err := s.SetUsername(ctx, username); err != nil {
				return err
			}

			waitCtx, cancel := context.WithTimeout(ctx, a.cfg.CheckTimeout)
			status, err := s.WaitAvailability(waitCtx)
			cancel()
			if err != nil {
				notify.Error(a.notifier, MsgCheckTimedOut)
				return err
			}
			if msg := s.AvailabilityMessage(); msg != "" {
				a.printf("%s\n", msg)
			}
			if status != realtime.StatusAvailable {
				return fmt.Errorf("%w: username %q is %s", auth.ErrSubmitDisabled, username, status)
			}

			if err := s.Submit(); err != nil {
				return err
			}
			a.printf("Next: tourdesk login\n")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to claim")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Password again")
	return cmd
}

func (a *App) forgotPasswordCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset code by email",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			s := auth.NewForgotPassword(cmd.Context(), a.authDeps())
			defer s.Teardown()

			s.SetEmail(email)
			if err := s.Submit(); err != nil {
				return err
			}
			a.printNext()
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func (a *App) verifyOTPCommand() *cobra.Command {
	var email, otp string
	var resend bool
	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Verify the emailed reset code, or ask for a new one",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			s := auth.NewOtpVerification(cmd.Context(), a.authDeps(), email)
			defer s.Teardown()

			a.printf("%s\n", s.Notice())
			if resend {
				return s.Resend()
			}

			s.SetOTP(otp)
			if err := s.Submit(); err != nil {
				return err
			}
			a.printNext()
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email the code was sent to")
	cmd.Flags().StringVar(&otp, "otp", "", "The 6-digit code")
	cmd.Flags().BoolVar(&resend, "resend", false, "Send a new code instead of verifying")
	return cmd
}

func (a *App) resetPasswordCommand() *cobra.Command {
	var email, password, confirm string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password after verifying the reset code",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			s := auth.NewResetPassword(cmd.Context(), a.authDeps(), email)
			defer s.Teardown()

			s.SetNewPassword(password)
			s.SetConfirmPassword(confirm)
			if err := s.Submit(); err != nil {
				return err
			}
			a.printf("Next: tourdesk login\n")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "New password again")
	return cmd
}

// printNext tells the user which command continues the recovery flow the
// screen navigated to
func (a *App) printNext() {
	loc := a.router.Current()
	email := loc.Param(navigation.ParamEmail)

	var next string
	switch loc.Path {
	case navigation.RouteOTPVerification:
		next = fmt.Sprintf("tourdesk verify-otp --email %q --otp <code>", email)
	case navigation.RouteResetPassword:
		next = fmt.Sprintf("tourdesk reset-password --email %q", email)
	default:
		return
	}
	a.printf("Next: %s\n", next)
}

