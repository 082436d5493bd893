package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/alexanderramin/timeledger/internal/config"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/service"
)

// App holds what CLI commands run against.
type App struct {
	Engine service.Engine
	Config *config.Config
	Logger *slog.Logger

	// Now overrides the wall clock for defaults such as "timesheet show".
	Now func() time.Time
	// IsTerminal reports whether w is an interactive terminal, which selects
	// table output over JSON.
	IsTerminal func(w io.Writer) bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// globalOpts are the root persistent flags.
type globalOpts struct {
	configPath string
	tenant     string
	org        string
	employee   string
	output     string
}

// operator is the CLI caller: it acts within the tenant and holds every
// permission.
func (o *globalOpts) operator() domain.Actor {
	return domain.Actor{
		TenantID:       o.tenant,
		OrganizationID: o.org,
		EmployeeID:     o.employee,
		Permissions: []domain.Permission{
			domain.PermChangeSelectedEmployee,
			domain.PermAllowManualTime,
			domain.PermAllowDeleteTime,
		},
	}
}

// NewRootCmd creates the top-level "timeledger" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	opts := &globalOpts{}
	root := &cobra.Command{
		Use:           "timeledger",
		Short:         "Workforce time ledger: slot consolidation and timesheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default ./timeledger.yaml)")
	pf.StringVar(&opts.tenant, "tenant", "default", "Tenant ID")
	pf.StringVar(&opts.org, "org", "", "Organization ID")
	pf.StringVar(&opts.employee, "employee", "", "Employee ID")
	pf.StringVarP(&opts.output, "output", "o", "", "Output format: table, json or yaml (default table on a terminal)")

	root.AddCommand(
		newServeCmd(app, opts),
		newSlotCmd(app, opts),
		newLogCmd(app, opts),
		newTimerCmd(app, opts),
		newSweepCmd(app, opts),
		newTimesheetCmd(app, opts),
		newEmployeeCmd(app, opts),
		newConfigCmd(app),
		newTokenCmd(app, opts),
	)
	return root
}

// render writes v in the selected format; table renders the human form.
func render(cmd *cobra.Command, app *App, opts *globalOpts, v any, table func() string) error {
	out := cmd.OutOrStdout()
	format := opts.output
	if format == "" {
		format = "json"
		if app.IsTerminal != nil && app.IsTerminal(out) {
			format = "table"
		}
	}

	switch format {
	case "table":
		_, err := fmt.Fprint(out, table())
		return err
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// parseTime accepts RFC 3339 or a UTC wall time such as "2024-03-04 09:30".
func parseTime(flag, value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("--%s: cannot parse %q as a time", flag, value)
}

// parseRange parses the --start and --end flag values.
func parseRange(start, end string) (time.Time, time.Time, error) {
	s, err := parseTime("start", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parseTime("end", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}
