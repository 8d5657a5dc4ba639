package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dutydesk/dutydesk-console/internal/api"
	"github.com/spf13/cobra"
)

func parseID(kind, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}

// monthFlags registers --year and --month defaulting to the current month.
func monthFlags(cmd *cobra.Command, year, month *int) {
	now := time.Now()
	cmd.Flags().IntVar(year, "year", now.Year(), "calendar year")
	cmd.Flags().IntVar(month, "month", int(now.Month()), "month (1-12)")
}

// optional returns a pointer to the flag value when the flag was given.
func optional(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func newScheduleCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"schedules"},
		Short:   "Duty roster entries and spreadsheet imports",
	}

	var year, month int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the roster of one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := rt.console.API().Schedules(cmd.Context(), year, month)
			if err != nil {
				return requestError(err)
			}
			return rt.render(rows)
		},
	}
	monthFlags(list, &year, &month)

	var sch api.Schedule
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Reassign or move one roster entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("schedule", args[0])
			if err != nil {
				return err
			}
			sch.ID = id
			msg, err := rt.console.API().UpdateSchedule(cmd.Context(), sch)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}
	update.Flags().StringVar(&sch.Date, "date", "", "duty date (YYYY-MM-DD)")
	update.Flags().StringVar(&sch.DutyType, "duty-type", "", "duty type")
	update.Flags().StringVar(&sch.StaffName, "staff", "", "person on duty")
	update.Flags().StringVar(&sch.StaffPhone, "phone", "", "phone, applied only when the person is unchanged")
	for _, f := range []string{"date", "duty-type", "staff"} {
		_ = update.MarkFlagRequired(f)
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove one roster entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("schedule", args[0])
			if err != nil {
				return err
			}
			msg, err := rt.console.API().DeleteSchedule(cmd.Context(), id)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}

	var appendOnly bool
	imp := &cobra.Command{
		Use:   "import FILE",
		Short: "Upload a roster spreadsheet, replacing the dates it covers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			msg, err := rt.console.API().ImportSchedules(cmd.Context(), filepath.Base(args[0]), f, !appendOnly)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}
	imp.Flags().BoolVar(&appendOnly, "append", false, "keep existing entries in the covered dates")

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show recent spreadsheet imports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := rt.console.API().ImportHistory(cmd.Context(), limit)
			if err != nil {
				return requestError(err)
			}
			return rt.render(rows)
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "number of imports to show")

	cmd.AddCommand(list, update, del, imp, history)
	return cmd
}

func newHolidayCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "holiday",
		Aliases: []string{"holidays"},
		Short:   "Public holidays, make-up working days and guarantee periods",
	}

	var year, month int
	list := &cobra.Command{
		Use:   "list",
		Short: "List marked days of one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, err := rt.console.API().Holidays(cmd.Context(), year, month)
			if err != nil {
				return requestError(err)
			}
			return rt.render(days)
		},
	}
	monthFlags(list, &year, &month)

	var (
		batch                     api.HolidayBatch
		name, dayType, guarantee  string
		clearType, clearGuarantee bool
	)
	mark := &cobra.Command{
		Use:   "mark",
		Short: "Set or clear the day type and guarantee period over a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batch.EndDate == "" {
				batch.EndDate = batch.StartDate
			}
			switch {
			case clearType:
				batch.UpdateType = true
			case cmd.Flags().Changed("type"):
				batch.UpdateType = true
				batch.Type = &dayType
				batch.Name = optional(cmd, "name", name)
			}
			switch {
			case clearGuarantee:
				batch.UpdateGuarantee = true
			case cmd.Flags().Changed("guarantee"):
				batch.UpdateGuarantee = true
				batch.IsGuarantee = true
				batch.GuaranteeName = &guarantee
			}
			msg, err := rt.console.API().MarkHolidays(cmd.Context(), batch)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}
	mark.Flags().StringVar(&batch.StartDate, "from", "", "first day (YYYY-MM-DD)")
	mark.Flags().StringVar(&batch.EndDate, "to", "", "last day (YYYY-MM-DD), defaults to --from")
	mark.Flags().StringVar(&dayType, "type", "", "day type, e.g. holiday or workday")
	mark.Flags().StringVar(&name, "name", "", "holiday name")
	mark.Flags().BoolVar(&clearType, "clear-type", false, "remove the day type")
	mark.Flags().StringVar(&guarantee, "guarantee", "", "guarantee period name")
	mark.Flags().BoolVar(&clearGuarantee, "clear-guarantee", false, "remove the guarantee period")
	_ = mark.MarkFlagRequired("from")
	mark.MarkFlagsMutuallyExclusive("type", "clear-type")
	mark.MarkFlagsMutuallyExclusive("guarantee", "clear-guarantee")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove one marked day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("holiday", args[0])
			if err != nil {
				return err
			}
			msg, err := rt.console.API().DeleteHoliday(cmd.Context(), id)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}

	cmd.AddCommand(list, mark, del)
	return cmd
}

func newContactCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contact",
		Aliases: []string{"contacts"},
		Short:   "Staff directory",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the staff directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := rt.console.API().Contacts(cmd.Context())
			if err != nil {
				return requestError(err)
			}
			return rt.render(rows)
		},
	}

	var realName, phone, department string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a contact's name, phone and department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("contact", args[0])
			if err != nil {
				return err
			}
			msg, err := rt.console.API().UpdateContact(cmd.Context(), id, api.ContactUpdate{
				RealName:   realName,
				Phone:      optional(cmd, "phone", phone),
				Department: optional(cmd, "department", department),
			})
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}
	update.Flags().StringVar(&realName, "name", "", "full name")
	update.Flags().StringVar(&phone, "phone", "", "phone number (cleared when omitted)")
	update.Flags().StringVar(&department, "department", "", "department (cleared when omitted)")
	_ = update.MarkFlagRequired("name")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a contact without duties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("contact", args[0])
			if err != nil {
				return err
			}
			msg, err := rt.console.API().DeleteContact(cmd.Context(), id)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}

	imp := &cobra.Command{
		Use:   "import FILE",
		Short: "Upload a directory spreadsheet (name, department, phone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			msg, err := rt.console.API().ImportContacts(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}

	cmd.AddCommand(list, update, del, imp)
	return cmd
}

func newUserCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Console accounts (super administrators only)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := rt.console.API().Users(cmd.Context())
			if err != nil {
				return requestError(err)
			}
			return rt.render(rows)
		},
	}

	var nu api.NewUser
	create := &cobra.Command{
		Use:   "create",
		Short: "Add an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := rt.console.API().CreateUser(cmd.Context(), nu)
			if err != nil {
				return requestError(err)
			}
			return rt.render(u)
		},
	}
	create.Flags().StringVar(&nu.Username, "username", "", "login name")
	create.Flags().StringVar(&nu.RealName, "name", "", "full name")
	create.Flags().StringVar(&nu.Password, "password", "", "initial password")
	create.Flags().StringVar(&nu.Role, "role", "user", "role")
	for _, f := range []string{"username", "name", "password"} {
		_ = create.MarkFlagRequired(f)
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			msg, err := rt.console.API().DeleteUser(cmd.Context(), id)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func newNotifyCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "WeCom duty notifications",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the notification setup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rt.console.API().NotifyConfig(cmd.Context())
			if err != nil {
				return requestError(err)
			}
			return rt.render(cfg)
		},
	}

	var cfg api.NotifyConfig
	var dailyTime string
	configure := &cobra.Command{
		Use:   "configure",
		Short: "Store the webhook, template and daily send time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.DailyTime = optional(cmd, "daily-time", dailyTime)
			msg, err := rt.console.API().SaveNotifyConfig(cmd.Context(), cfg)
			if err != nil {
				return requestError(err)
			}
			return rt.render(msg)
		},
	}
	configure.Flags().StringVar(&cfg.WebhookURL, "webhook", "", "WeCom group bot webhook URL")
	configure.Flags().StringVar(&cfg.MessageTemplate, "template", "", "message template")
	configure.Flags().StringVar(&dailyTime, "daily-time", "", "daily send time (HH:MM); omit to disable")
	_ = configure.MarkFlagRequired("webhook")

	send := &cobra.Command{
		Use:   "send",
		Short: "Send today's duty message now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := rt.console.API().SendNotification(cmd.Context())
			if err != nil {
				return requestError(err)
			}
			return rt.render(raw)
		},
	}

	cmd.AddCommand(show, configure, send)
	return cmd
}
