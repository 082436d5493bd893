package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeledger/internal/cli/formatter"
	"github.com/alexanderramin/timeledger/internal/domain"
)

func newSweepCmd(app *App, opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Close running logs whose client went quiet",
		RunE: func(cmd *cobra.Command, args []string) error {
			closed, err := app.Engine.CloseStaleLogs(cmd.Context(), opts.tenant, opts.org)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed %d stale time log(s)\n", closed)
			return nil
		},
	}
}

func newTimesheetCmd(app *App, opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Inspect weekly timesheets",
	}

	var at string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the timesheet of the week holding --at (default now)",
		RunE: func(cmd *cobra.Command, args []string) error {
			when := app.now()
			if at != "" {
				t, err := parseTime("at", at)
				if err != nil {
					return err
				}
				when = t
			}
			ts, err := app.Engine.GetTimesheet(cmd.Context(), opts.operator(), opts.employee, when)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, ts, func() string {
				return formatter.FormatTimesheet(ts)
			})
		},
	}
	show.Flags().StringVar(&at, "at", "", "Any time within the week")
	cmd.AddCommand(show)
	return cmd
}

func newEmployeeCmd(app *App, opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Register and list employees",
	}
	cmd.AddCommand(newEmployeeAddCmd(app, opts), newEmployeeListCmd(app, opts))
	return cmd
}

func newEmployeeAddCmd(app *App, opts *globalOpts) *cobra.Command {
	var name, orgName string
	var futureAllowed, trackingDisabled bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an employee, creating the organization if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			org := &domain.Organization{
				ID:                opts.org,
				TenantID:          opts.tenant,
				Name:              orgName,
				FutureDateAllowed: futureAllowed,
			}
			emp := &domain.Employee{
				ID:                opts.employee,
				Name:              name,
				IsTrackingEnabled: !trackingDisabled,
			}
			if err := app.Engine.Register(cmd.Context(), org, emp); err != nil {
				return err
			}
			return render(cmd, app, opts, emp, func() string {
				return fmt.Sprintf("Registered %s (%s) in organization %s\n",
					formatter.Bold(emp.Name), emp.ID, org.ID)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Employee name")
	cmd.Flags().StringVar(&orgName, "org-name", "", "Organization name when it is created")
	cmd.Flags().BoolVar(&futureAllowed, "future-allowed", false, "Allow manual time in the future for a new organization")
	cmd.Flags().BoolVar(&trackingDisabled, "tracking-disabled", false, "Register with time tracking disabled")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newEmployeeListCmd(app *App, opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the organization's employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := app.Engine.List(cmd.Context(), opts.tenant, opts.org)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, employees, func() string {
				return formatter.FormatEmployees(employees)
			})
		},
	}
}
