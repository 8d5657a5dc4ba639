package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dutydesk/dutydesk-console/internal/api"
	"github.com/dutydesk/dutydesk-console/internal/routes"
	"github.com/dutydesk/dutydesk-console/internal/session"
	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
	"github.com/spf13/cobra"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.console.API().Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %s", api.BackendMessage(err))
			}
			return rt.render(map[string]string{"status": "logged in", "role": res.Role})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token and role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.console.API().Logout(cmd.Context()); err != nil {
				return err
			}
			return rt.render(map[string]string{"status": "logged out"})
		},
	}
}

type whoami struct {
	LoggedIn bool            `json:"logged_in" yaml:"logged_in"`
	Role     string          `json:"role,omitempty" yaml:"role,omitempty"`
	Claims   *session.Claims `json:"claims,omitempty" yaml:"claims,omitempty"`
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := rt.console.API().CurrentSession(cmd.Context())
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}
			out := whoami{LoggedIn: !sess.Empty(), Role: sess.Role}
			if !sess.Empty() {
				if claims, err := session.Inspect(sess.Token); err == nil {
					out.Claims = &claims
				}
			}
			return rt.render(out)
		},
	}
}

func newStatsCommand(rt *runtime) *cobra.Command {
	var year int
	var yearly bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show duty statistics for a year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetch := rt.console.API().AdvancedStats
			if yearly {
				fetch = rt.console.API().YearlyStats
			}
			raw, err := fetch(cmd.Context(), year)
			if err != nil {
				return requestError(err)
			}
			return rt.render(raw)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	cmd.Flags().BoolVar(&yearly, "yearly", false, "show the yearly summary instead of per-person statistics")
	return cmd
}

func newCompensatoryCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compensatory",
		Aliases: []string{"comp"},
		Short:   "Compensatory leave balances and bookings",
	}

	var year int
	overview := &cobra.Command{
		Use:   "overview",
		Short: "List leave balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := rt.console.API().CompensatoryOverview(cmd.Context(), year)
			if err != nil {
				return requestError(err)
			}
			return rt.render(rows)
		},
	}
	overview.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")

	var calYear int
	calendar := &cobra.Command{
		Use:   "calendar STAFF",
		Short: "Show duty days, leave taken and remaining quota for one person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := rt.console.API().CompensatoryCalendar(cmd.Context(), args[0], calYear)
			if err != nil {
				return requestError(err)
			}
			return rt.render(cal)
		},
	}
	calendar.Flags().IntVar(&calYear, "year", time.Now().Year(), "calendar year")

	var req api.RedeemRequest
	redeem := &cobra.Command{
		Use:   "redeem STAFF",
		Short: "Book a leave day against a duty day's quota",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.StaffName = args[0]
			msg, err := rt.console.API().Redeem(cmd.Context(), req)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}
	redeem.Flags().StringVar(&req.RedeemDate, "date", "", "leave date (YYYY-MM-DD)")
	redeem.Flags().IntVar(&req.ScheduleID, "schedule", 0, "duty schedule id the leave is taken from")
	_ = redeem.MarkFlagRequired("date")
	_ = redeem.MarkFlagRequired("schedule")

	cancel := &cobra.Command{
		Use:   "cancel REDEMPTION_ID",
		Short: "Revert a booked leave day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("redemption", args[0])
			if err != nil {
				return err
			}
			msg, err := rt.console.API().CancelRedeem(cmd.Context(), id)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}

	cmd.AddCommand(overview, calendar, redeem, cancel)
	return cmd
}

func newRequestCommand(rt *runtime) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send an authenticated request to any backend path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body json.RawMessage
			if data = strings.TrimSpace(data); data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data must be valid JSON")
				}
				body = json.RawMessage(data)
			}
			raw, err := rt.console.API().Raw(cmd.Context(), args[0], args[1], body)
			if err != nil {
				return requestError(err)
			}
			return rt.render(raw)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

func newRoutesCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "routes [PATH]",
		Short: "List the client routes, or resolve one path to its view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return rt.render(routes.Table())
			}
			rtInfo, ok := routes.Resolve(args[0])
			if !ok {
				return fmt.Errorf("no route for %q", args[0])
			}
			return rt.render(rtInfo)
		},
	}
}

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the development server: SPA routes plus the /api reverse proxy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := rt.console.DevServer()
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}

// requestError prefers the backend's own explanation for rejected requests.
func requestError(err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("request failed (%d): %s", se.StatusCode, api.BackendMessage(err))
	}
	return fmt.Errorf("request failed: %w", err)
}
