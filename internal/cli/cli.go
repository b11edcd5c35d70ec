// Package cli is the command-line front end of the dashboard. Each command
// mounts the matching screen, feeds it the flag values and submits it, so
// the terminal sees the same notifications the screens raise.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tourdesk/internal/api"
	"tourdesk/internal/auth"
	"tourdesk/internal/config"
	"tourdesk/internal/logger"
	"tourdesk/internal/navigation"
	"tourdesk/internal/notify"
	"tourdesk/internal/realtime"
	"tourdesk/internal/session"
	"tourdesk/internal/tours"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DialFunc opens the realtime channel used by registration
type DialFunc func(ctx context.Context, url string, logger *slog.Logger) (*realtime.Channel, error)

// App holds what the commands share for one invocation
type App struct {
	out    io.Writer
	errOut io.Writer
	dial   DialFunc

	cfg      *config.Config
	logger   *slog.Logger
	notifier notify.Notifier
	client   *api.Client
	sess     *session.Session
	router   *navigation.Router
}

// Option configures an App
type Option func(*App)

// WithOutput sets where notifications and results are printed
func WithOutput(out io.Writer) Option {
	return func(a *App) { a.out = out }
}

// WithErrOutput sets where logs go
func WithErrOutput(w io.Writer) Option {
	return func(a *App) { a.errOut = w }
}

// WithDialer replaces realtime.Dial
func WithDialer(d DialFunc) Option {
	return func(a *App) { a.dial = d }
}

// NewRootCommand builds the tourdesk command tree
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &App{out: os.Stdout, errOut: os.Stderr, dial: realtime.Dial}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           "tourdesk",
		Short:         "Tour booking admin dashboard",
		Long:          "tourdesk signs admins in, manages tour categories and authors tour packages against the tour API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(
		a.loginCommand(),
		a.whoamiCommand(),
		a.registerCommand(),
		a.forgotPasswordCommand(),
		a.verifyOTPCommand(),
		a.resetPasswordCommand(),
		a.categoryCommand(),
		a.tourCommand(),
		a.dashboardCommand(),
	)
	return root
}

// run wraps a command body with setup and teardown of the shared runtime
func (a *App) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd); err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(viper.New(), cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(a.errOut, logger.FormatText)
	api.InstallTracePropagation()
	a.notifier = notify.NewConsole(a.out, a.logger)
	a.client = api.NewClient(cfg.ServerURL, cfg.HTTPTimeout, api.WithLogger(a.logger))

	store, err := session.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	a.sess = session.New(store)

	router, err := navigation.NewRouter(navigation.RouteLogin)
	if err != nil {
		return err
	}
	a.router = router
	return nil
}

func (a *App) close() {
	if a.sess != nil {
		if err := a.sess.Close(); err != nil {
			a.logger.Warn("failed to close session store", slog.Any("error", err))
		}
	}
}

func (a *App) authDeps() auth.Deps {
	return auth.Deps{API: a.client, Notifier: a.notifier, Navigator: a.router, Logger: a.logger}
}

func (a *App) tourDeps() tours.Deps {
	return tours.Deps{API: a.client, Notifier: a.notifier, Logger: a.logger}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
