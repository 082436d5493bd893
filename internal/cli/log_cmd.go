package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeledger/internal/cli/formatter"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/service"
)

func newLogCmd(app *App, opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Manage time logs",
	}
	cmd.AddCommand(
		newLogAddCmd(app, opts),
		newLogUpdateCmd(app, opts),
		newLogRemoveCmd(app, opts),
		newLogListCmd(app, opts),
	)
	return cmd
}

// manualFlags are shared by "log add" and "log update".
type manualFlags struct {
	start, end, source, note string
}

func (f *manualFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Interval start")
	cmd.Flags().StringVar(&f.end, "end", "", "Interval end (exclusive)")
	cmd.Flags().StringVar(&f.source, "source", "", "Source: WEB_TIMER (default) or DESKTOP")
	cmd.Flags().StringVar(&f.note, "note", "", "Description")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *manualFlags) input(opts *globalOpts) (service.ManualTimeInput, error) {
	start, end, err := parseRange(f.start, f.end)
	if err != nil {
		return service.ManualTimeInput{}, err
	}
	return service.ManualTimeInput{
		EmployeeID:     opts.employee,
		OrganizationID: opts.org,
		StartedAt:      start,
		StoppedAt:      end,
		Source:         domain.LogSource(f.source),
		Description:    f.note,
	}, nil
}

func newLogAddCmd(app *App, opts *globalOpts) *cobra.Command {
	var f manualFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add manual time, trimming any overlapping logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input(opts)
			if err != nil {
				return err
			}
			log, err := app.Engine.AddManualTime(cmd.Context(), opts.operator(), in)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, log, func() string {
				return formatter.FormatTimeLogs([]*domain.TimeLog{log}, app.now())
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newLogUpdateCmd(app *App, opts *globalOpts) *cobra.Command {
	var f manualFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Move a time log to new bounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input(opts)
			if err != nil {
				return err
			}
			log, err := app.Engine.UpdateManualTime(cmd.Context(), opts.operator(), args[0], in)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, log, func() string {
				return formatter.FormatTimeLogs([]*domain.TimeLog{log}, app.now())
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newLogRemoveCmd(app *App, opts *globalOpts) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove ID...",
		Short: "Delete time logs and release their slots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.Engine.DeleteTimeLogs(cmd.Context(), opts.operator(), service.DeleteInput{
				LogIDs:         args,
				EmployeeID:     opts.employee,
				OrganizationID: opts.org,
				ForceDelete:    force,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d time log(s)\n", len(args))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Hard delete instead of soft delete")
	return cmd
}

func newLogListCmd(app *App, opts *globalOpts) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time logs in a range (default: today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := rangeOrToday(app, start, end)
			if err != nil {
				return err
			}
			logs, err := app.Engine.ListTimeLogs(cmd.Context(), opts.operator(), opts.employee, s, e)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, logs, func() string {
				return formatter.FormatTimeLogs(logs, app.now())
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Range start")
	cmd.Flags().StringVar(&end, "end", "", "Range end")
	return cmd
}
