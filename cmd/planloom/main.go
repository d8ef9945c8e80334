package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/calebmorton/planloom/internal/config"
	"github.com/calebmorton/planloom/internal/dates"
	"github.com/calebmorton/planloom/internal/graph"
	"github.com/calebmorton/planloom/internal/logging"
	"github.com/calebmorton/planloom/internal/narrative"
	"github.com/calebmorton/planloom/internal/report"
	"github.com/calebmorton/planloom/internal/schedule"
	"github.com/calebmorton/planloom/internal/state"
	"github.com/calebmorton/planloom/internal/store"
	"github.com/calebmorton/planloom/internal/ui"
)

var (
	flagConfig    string
	flagDB        string
	flagProject   string
	flagInput     string
	flagAsOf      string
	flagJSON      bool
	flagDryRun    bool
	flagCheck     bool
	flagNarrative bool
	flagWindow    int
	flagLogLevel  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planloom",
		Short: "Forward-schedule project tasks under resource constraints",
		Long: `Planloom reads a snapshot of a project's task dependency graph and the
user roster, runs a critical-path forward scheduling pass that assigns
start dates and personnel, and writes the result back.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default planloom.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "Project id to schedule")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Availability seed date (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env bundles what every command needs after setup.
type env struct {
	cfg config.Config
	log zerolog.Logger
}

func setup() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DatabasePath = flagDB
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return &env{cfg: cfg, log: logging.New(os.Stderr, cfg.LogLevel)}, nil
}

func (e *env) projectID() (string, error) {
	if flagProject != "" {
		return flagProject, nil
	}
	if e.cfg.DefaultProject != "" {
		return e.cfg.DefaultProject, nil
	}
	return "", fmt.Errorf("no project given: pass --project or set default_project")
}

// loadSnapshot reads the scheduling inputs from --input JSON when
// given, otherwise from the database.
func (e *env) loadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	if flagInput != "" {
		data, err := os.ReadFile(flagInput)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		return store.ParseSnapshot(data)
	}

	projectID, err := e.projectID()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(e.cfg.DatabasePath, logging.For(e.log, "store"))
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.LoadSnapshot(ctx, projectID)
}

func newEngine() (*schedule.Engine, error) {
	eng := schedule.NewEngine()
	if flagAsOf != "" {
		asOf, err := dates.Parse(flagAsOf)
		if err != nil {
			return nil, err
		}
		eng.Today = asOf
	}
	return eng, nil
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a scheduling pass and apply the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			snap, err := e.loadSnapshot(ctx)
			if err != nil {
				return err
			}
			eng, err := newEngine()
			if err != nil {
				return err
			}

			if flagCheck {
				return checkDrift(eng, snap)
			}

			result := eng.Schedule(snap.Project, snap.Tasks, snap.Users, snap.OtherTasks)

			if flagJSON {
				if err := report.WriteJSON(os.Stdout, result); err != nil {
					return err
				}
			} else {
				report.PrintSchedule(os.Stdout, snap.Project, result)
			}

			// A short result means tasks were stuck behind unresolved
			// dependencies: surface it as a hard error after printing.
			if len(result.Tasks) < len(snap.Tasks) {
				return fmt.Errorf("%d of %d tasks could not be scheduled",
					len(snap.Tasks)-len(result.Tasks), len(snap.Tasks))
			}

			if !flagDryRun && flagInput == "" {
				s, err := store.Open(e.cfg.DatabasePath, logging.For(e.log, "store"))
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.ApplySchedule(ctx, result.Tasks); err != nil {
					return fmt.Errorf("apply schedule: %w", err)
				}
			}

			rec := state.NewRecord(snap.Project, result, len(snap.Tasks), eng.Today.String())
			if err := rec.Save("."); err != nil {
				e.log.Warn().Err(err).Msg("could not save run state")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagInput, "input", "", "Read snapshot from a JSON export instead of the database")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Compute and print without applying")
	cmd.Flags().BoolVar(&flagCheck, "check", false, "Compare against the last run and report drift")
	return cmd
}

// checkDrift replays the scheduling pass against the recorded run.
// Availability is seeded from the record's as-of date unless --as-of
// overrides it: seeding from today would re-floor every user's
// next-free-date and report drift on a schedule that has not changed.
func checkDrift(eng *schedule.Engine, snap *store.Snapshot) error {
	if !state.Exists(".") {
		return fmt.Errorf("no previous run to check against")
	}
	rec, err := state.Load(".")
	if err != nil {
		return err
	}
	if flagAsOf == "" && rec.AsOf != "" {
		asOf, err := dates.Parse(rec.AsOf)
		if err != nil {
			return fmt.Errorf("recorded as-of date: %w", err)
		}
		eng.Today = asOf
	}

	result := eng.Schedule(snap.Project, snap.Tasks, snap.Users, snap.OtherTasks)
	drift := rec.Drift(result)
	if len(drift) == 0 {
		fmt.Printf("%s schedule is stable against run %s\n", ui.Green("✓"), rec.RunID)
		return nil
	}
	fmt.Printf("%s %d change(s) since run %s:\n", ui.BoldYellow("!"), len(drift), rec.RunID)
	for _, d := range drift {
		fmt.Printf("  %s\n", d)
	}
	return fmt.Errorf("schedule drifted from previous run")
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a schedule without applying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			snap, err := e.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			eng, err := newEngine()
			if err != nil {
				return err
			}

			result := eng.Schedule(snap.Project, snap.Tasks, snap.Users, snap.OtherTasks)
			if flagJSON {
				return report.WriteJSON(os.Stdout, result)
			}
			report.PrintSchedule(os.Stdout, snap.Project, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagInput, "input", "", "Read snapshot from a JSON export instead of the database")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the task graph for cycles and dangling dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			snap, err := e.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}

			nodes := make([]graph.Node, len(snap.Tasks))
			for i, t := range snap.Tasks {
				nodes[i] = graph.Node{ID: t.ID, Deps: t.Dependencies}
			}
			g := graph.Build(nodes)

			clean := true
			if cycle := g.DetectCycle(); cycle != nil {
				clean = false
				fmt.Printf("%s dependency cycle: %s\n", ui.BoldRed("✗"), strings.Join(cycle, " -> "))
				if stuck := g.Unreachable(); stuck != nil {
					fmt.Printf("  %d task(s) unschedulable: %s\n", len(stuck), strings.Join(stuck, ", "))
				}
			}
			for id, deps := range g.Dangling() {
				fmt.Printf("%s task %s references unknown dependencies: %s\n",
					ui.Yellow("!"), id, strings.Join(deps, ", "))
			}

			if !clean {
				return fmt.Errorf("task graph is invalid")
			}
			fmt.Printf("%s %d tasks, graph is acyclic\n", ui.Green("✓"), g.NodeCount())
			return nil
		},
	}
	cmd.Flags().StringVar(&flagInput, "input", "", "Read snapshot from a JSON export instead of the database")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last scheduling run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !state.Exists(".") {
				return fmt.Errorf("no scheduling run recorded here")
			}
			rec, err := state.Load(".")
			if err != nil {
				return err
			}

			fmt.Printf("%s %s (%s)\n", ui.BoldCyan("Last run"), rec.RunID, rec.RanAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("  project     %s (%s)\n", rec.ProjectName, rec.ProjectID)
			fmt.Printf("  as of       %s\n", rec.AsOf)
			fmt.Printf("  tasks       %d scheduled of %d\n", rec.TaskCount, rec.InputCount)
			if len(rec.Conflicts) > 0 {
				fmt.Printf("  conflicts   %s\n", ui.Yellow(fmt.Sprintf("%d", len(rec.Conflicts))))
				for _, c := range rec.Conflicts {
					fmt.Printf("    %s %s\n", ui.Yellow("!"), c)
				}
			} else {
				fmt.Printf("  conflicts   %s\n", ui.Green("none"))
			}
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show per-user utilization for the scheduled window",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			snap, err := e.loadSnapshot(ctx)
			if err != nil {
				return err
			}
			eng, err := newEngine()
			if err != nil {
				return err
			}

			result := eng.Schedule(snap.Project, snap.Tasks, snap.Users, snap.OtherTasks)

			window := flagWindow
			if window <= 0 {
				window = e.cfg.UtilizationWindowDays
			}
			from := snap.Project.StartDate
			to := from.AddDays(window)
			util := report.Utilization(result.Tasks, snap.Users, from, to)

			fmt.Printf("%s %s — %d days from %s\n\n",
				ui.BoldCyan("Utilization"), ui.Bold(snap.Project.Name), window, from)
			report.PrintUtilization(os.Stdout, snap.Users, util)

			if flagNarrative {
				gen, err := narrative.NewClient(e.cfg.Narrative.APIKey, e.cfg.Narrative.Model)
				if err != nil {
					return err
				}
				text, err := gen.Summarize(ctx, narrative.BuildInput(snap.Project, result, util))
				if err != nil {
					return err
				}
				fmt.Printf("\n%s\n\n%s\n", ui.BoldCyan("Summary"), text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagInput, "input", "", "Read snapshot from a JSON export instead of the database")
	cmd.Flags().IntVar(&flagWindow, "window", 0, "Utilization window in days (default from config)")
	cmd.Flags().BoolVar(&flagNarrative, "narrative", false, "Generate an AI narrative summary")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot.json>",
		Short: "Import a JSON snapshot export into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			snap, err := store.ParseSnapshot(data)
			if err != nil {
				return err
			}

			s, err := store.Open(e.cfg.DatabasePath, logging.For(e.log, "store"))
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ImportSnapshot(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Printf("%s imported project %s: %d tasks, %d users\n",
				ui.Green("✓"), ui.Bold(snap.Project.ID),
				len(snap.Tasks)+len(snap.OtherTasks), len(snap.Users))
			return nil
		},
	}
}
