package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeledger/internal/cli/formatter"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/service"
)

func newTimerCmd(app *App, opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Start or stop the employee's timer",
	}
	cmd.AddCommand(newTimerStartCmd(app, opts), newTimerStopCmd(app, opts))
	return cmd
}

func newTimerStartCmd(app *App, opts *globalOpts) *cobra.Command {
	var source, logType, note string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Open a running time log",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := app.Engine.StartTimer(cmd.Context(), opts.operator(), service.TimerInput{
				EmployeeID:     opts.employee,
				OrganizationID: opts.org,
				Source:         domain.LogSource(source),
				LogType:        domain.LogType(logType),
				Description:    note,
			})
			if err != nil {
				return err
			}
			return render(cmd, app, opts, log, func() string {
				return formatter.FormatTimeLogs([]*domain.TimeLog{log}, app.now())
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source: WEB_TIMER (default) or DESKTOP")
	cmd.Flags().StringVar(&logType, "type", "", "Log type (default TRACKED)")
	cmd.Flags().StringVar(&note, "note", "", "Description")
	return cmd
}

func newTimerStopCmd(app *App, opts *globalOpts) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Close the running time log",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stoppedAt *time.Time
			if at != "" {
				t, err := parseTime("at", at)
				if err != nil {
					return err
				}
				stoppedAt = &t
			}
			log, err := app.Engine.StopTimer(cmd.Context(), opts.operator(), service.TimerInput{
				EmployeeID:     opts.employee,
				OrganizationID: opts.org,
				StoppedAt:      stoppedAt,
			})
			if err != nil {
				return err
			}
			return render(cmd, app, opts, log, func() string {
				return formatter.FormatTimeLogs([]*domain.TimeLog{log}, app.now())
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Stop time (default now)")
	return cmd
}
