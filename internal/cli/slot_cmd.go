package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/alexanderramin/timeledger/internal/cli/formatter"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/service"
)

func newSlotCmd(app *App, opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Ingest, merge and list 10-minute time slots",
	}
	cmd.AddCommand(
		newSlotIngestCmd(app, opts),
		newSlotBulkCmd(app, opts),
		newSlotMergeCmd(app, opts),
		newSlotListCmd(app, opts),
	)
	return cmd
}

func newSlotIngestCmd(app *App, opts *globalOpts) *cobra.Command {
	var at, project string
	var duration, keyboard, mouse, overall int
	var logIDs []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Record one activity ping",
		RunE: func(cmd *cobra.Command, args []string) error {
			startedAt, err := parseTime("at", at)
			if err != nil {
				return err
			}
			slot, err := app.Engine.IngestTimeSlot(cmd.Context(), opts.operator(), service.SlotInput{
				EmployeeID:     opts.employee,
				OrganizationID: opts.org,
				ProjectID:      project,
				StartedAt:      startedAt,
				Duration:       duration,
				Keyboard:       keyboard,
				Mouse:          mouse,
				Overall:        overall,
				TimeLogIDs:     logIDs,
			})
			if err != nil {
				return err
			}
			return render(cmd, app, opts, slot, func() string {
				return formatter.FormatTimeSlots([]*domain.TimeSlot{slot})
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Ping time (aligned down to its 10-minute bucket)")
	cmd.Flags().IntVar(&duration, "duration", 600, "Tracked seconds")
	cmd.Flags().IntVar(&keyboard, "keyboard", 0, "Keyboard-active seconds")
	cmd.Flags().IntVar(&mouse, "mouse", 0, "Mouse-active seconds")
	cmd.Flags().IntVar(&overall, "overall", 0, "Overall active seconds")
	cmd.Flags().StringSliceVar(&logIDs, "log", nil, "Attach these time logs instead of the running one")
	cmd.Flags().StringVar(&project, "project", "", "Project ID")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

// slotRecord is one entry of a bulk ingest file (yaml or JSON).
type slotRecord struct {
	StartedAt  string   `yaml:"startedAt"`
	ProjectID  string   `yaml:"projectId"`
	Duration   int      `yaml:"duration"`
	Keyboard   int      `yaml:"keyboard"`
	Mouse      int      `yaml:"mouse"`
	Overall    int      `yaml:"overall"`
	TimeLogIDs []string `yaml:"timeLogIds"`
}

func readSlotFile(path string, opts *globalOpts) ([]service.SlotInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading slot file: %w", err)
	}
	var records []slotRecord
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing slot file: %w", err)
	}

	inputs := make([]service.SlotInput, 0, len(records))
	for i, r := range records {
		startedAt, err := parseTime(fmt.Sprintf("file[%d].startedAt", i), r.StartedAt)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, service.SlotInput{
			EmployeeID:     opts.employee,
			OrganizationID: opts.org,
			ProjectID:      r.ProjectID,
			StartedAt:      startedAt,
			Duration:       r.Duration,
			Keyboard:       r.Keyboard,
			Mouse:          r.Mouse,
			Overall:        r.Overall,
			TimeLogIDs:     r.TimeLogIDs,
		})
	}
	return inputs, nil
}

func newSlotBulkCmd(app *App, opts *globalOpts) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Ingest a batch of pings from a yaml or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readSlotFile(file, opts)
			if err != nil {
				return err
			}
			slots, err := app.Engine.BulkIngestTimeSlots(cmd.Context(), opts.operator(), inputs)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, slots, func() string {
				return formatter.FormatTimeSlots(slots)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to a list of slot records")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSlotMergeCmd(app *App, opts *globalOpts) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Collapse duplicate slots in a range",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := parseRange(start, end)
			if err != nil {
				return err
			}
			slots, err := app.Engine.MergeSlots(cmd.Context(), opts.operator(), opts.employee, opts.org, s, e)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, slots, func() string {
				return formatter.FormatTimeSlots(slots)
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Range start")
	cmd.Flags().StringVar(&end, "end", "", "Range end")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newSlotListCmd(app *App, opts *globalOpts) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List slots in a range (default: today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := rangeOrToday(app, start, end)
			if err != nil {
				return err
			}
			slots, err := app.Engine.ListTimeSlots(cmd.Context(), opts.operator(), opts.employee, s, e)
			if err != nil {
				return err
			}
			return render(cmd, app, opts, slots, func() string {
				return formatter.FormatTimeSlots(slots)
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Range start")
	cmd.Flags().StringVar(&end, "end", "", "Range end")
	return cmd
}

// rangeOrToday parses --start/--end, defaulting to the current UTC day.
func rangeOrToday(app *App, start, end string) (time.Time, time.Time, error) {
	if start == "" && end == "" {
		day := app.now().Truncate(24 * time.Hour)
		return day, day.Add(24 * time.Hour), nil
	}
	return parseRange(start, end)
}
