package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dutydesk/dutydesk-console/internal/app"
	"github.com/dutydesk/dutydesk-console/internal/config"
	"github.com/dutydesk/dutydesk-console/internal/logger"
	"github.com/dutydesk/dutydesk-console/internal/routes"
	"github.com/dutydesk/dutydesk-console/pkg/events"
	"github.com/spf13/cobra"
)

// Env carries what commands need; tests substitute the loader and writers.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	// LoadConfig defaults to config.Load.
	LoadConfig func() (*config.Config, error)
	// Logger is used instead of a zap logger built from config when set.
	Logger logger.Logger
}

type runtime struct {
	env     Env
	cfg     *config.Config
	console *app.Console
	output  string
}

// Execute runs the dutydesk command tree with args (os.Args when empty) and
// releases the console afterwards, whether or not the command succeeded.
func Execute(ctx context.Context, env Env, args ...string) error {
	root, rt := newRootCommand(env)
	if len(args) > 0 {
		root.SetArgs(args)
	}
	err := root.ExecuteContext(ctx)
	return errors.Join(err, rt.teardown())
}

func newRootCommand(env Env) (*cobra.Command, *runtime) {
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.LoadConfig == nil {
		env.LoadConfig = config.Load
	}

	rt := &runtime{env: env}

	root := &cobra.Command{
		Use:           "dutydesk",
		Short:         "Console for the duty roster backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
	}
	root.PersistentFlags().StringP("output", "o", "", "output format: json or yaml (defaults to config)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newStatsCommand(rt),
		newCompensatoryCommand(rt),
		newScheduleCommand(rt),
		newHolidayCommand(rt),
		newContactCommand(rt),
		newUserCommand(rt),
		newNotifyCommand(rt),
		newRequestCommand(rt),
		newRoutesCommand(rt),
		newServeCommand(rt),
	)
	return root, rt
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	cfg, err := rt.env.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	rt.output = cfg.Output
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		rt.output = out
	}
	if rt.output != "json" && rt.output != "yaml" {
		return fmt.Errorf("unsupported output %q", rt.output)
	}

	log := rt.env.Logger
	if log == nil {
		if log, err = logger.Init(cfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	console, err := app.NewConsole(ctx, cfg, log)
	if err != nil {
		return err
	}
	console.Expired = rt.sessionExpired

	rt.cfg = cfg
	rt.console = console
	return nil
}

func (rt *runtime) teardown() error {
	if rt.console == nil {
		return nil
	}
	err := rt.console.Close()
	rt.console = nil
	return err
}

// sessionExpired is the console's counterpart of sending the browser back to
// the root page: the stored login is gone, so point the user at login again.
func (rt *runtime) sessionExpired(evt events.Event, landing routes.Route) {
	fmt.Fprintf(rt.env.Stderr, "session expired (%s %s returned %d); returning to %s, run `dutydesk login` to sign in again\n",
		evt.Method, evt.URL, evt.StatusCode, landing.Path)
}

func (rt *runtime) render(v any) error {
	return render(rt.env.Stdout, rt.output, v)
}
