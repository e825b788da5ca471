package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/thebtf/emocheck/internal/ageprofile"
	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/internal/clinical"
	"github.com/thebtf/emocheck/internal/config"
	gormdb "github.com/thebtf/emocheck/internal/db/gorm"
	"github.com/thebtf/emocheck/internal/prompts"
	"github.com/thebtf/emocheck/pkg/models"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	driver  string
	dsn     string
	catalog string
	debug   bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "emocheck",
		Short:         "Age-adaptive emotion check-in tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&g.driver, "driver", "", "database driver: sqlite or postgres (default from settings)")
	root.PersistentFlags().StringVar(&g.dsn, "dsn", "", "database file or connection string (default from settings)")
	root.PersistentFlags().StringVar(&g.catalog, "catalog", "", "catalog override file")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		profileCmd(),
		promptsCmd(&g),
		trendCmd(&g),
		alertsCmd(&g),
		reportCmd(&g),
		observationsCmd(&g),
		versionCmd(),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (g *globalFlags) loadCatalog() (*catalog.Catalog, error) {
	path := g.catalog
	if path == "" {
		path = config.Get().CatalogPath
	}
	return catalog.Load(path)
}

// database resolves the driver and DSN from settings and flags. A DSN from
// settings is dropped when --driver selects a different driver.
func (g *globalFlags) database(cfg *config.Config) (driver, dsn string, err error) {
	driver, dsn = cfg.DBDriver, cfg.DatabaseDSN
	if g.driver != "" && g.driver != driver {
		driver, dsn = g.driver, ""
		if driver == config.DriverSQLite {
			dsn = config.DBPath()
		}
	}
	if g.dsn != "" {
		dsn = g.dsn
	}
	if dsn == "" {
		return "", "", fmt.Errorf("--dsn is required for driver %s", driver)
	}
	return driver, dsn, nil
}

func (g *globalFlags) openEntries() (*gormdb.EntryStore, func(), error) {
	driver, dsn, err := g.database(config.Get())
	if err != nil {
		return nil, nil, err
	}
	store, err := gormdb.NewStore(gormdb.Config{
		Driver:   driver,
		DSN:      dsn,
		MaxConns: 1,
		LogLevel: logger.Silent,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return gormdb.NewEntryStore(store), func() { _ = store.Close() }, nil
}

func profileCmd() *cobra.Command {
	var age int
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the age profile for an age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), ageprofile.Resolve(age))
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "child's age")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}

func promptsCmd(g *globalFlags) *cobra.Command {
	var (
		age  int
		mood string
	)
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List the adaptive prompts for a mood",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ageprofile.Resolve(age).Allows(models.FeaturePrompts) {
				return fmt.Errorf("%w: prompts at age %d", models.ErrInvalidFeatureForAge, age)
			}
			cat, err := g.loadCatalog()
			if err != nil {
				return err
			}
			if mood != "" {
				if _, ok := cat.Mood(mood); !ok {
					return fmt.Errorf("unknown mood %q", mood)
				}
			}
			return writeJSON(cmd.OutOrStdout(), prompts.NewEngine(cat).ForMood(mood))
		},
	}
	cmd.Flags().IntVar(&age, "age", ageprofile.MaxAge, "child's age")
	cmd.Flags().StringVar(&mood, "mood", "", "mood id")
	return cmd
}

// patientCmd builds a command that loads a patient's entries and prints a summary of them.
func patientCmd(g *globalFlags, use, short string, summarize func(patient string, entries []models.MoodEntry, now time.Time) interface{}) *cobra.Command {
	var (
		patient string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if patient == "" {
				return errors.New("--patient is required")
			}
			entries, closeStore, err := g.openEntries()
			if err != nil {
				return err
			}
			defer closeStore()

			history, err := entries.ListByPatient(cmd.Context(), patient, limit)
			if err != nil {
				return fmt.Errorf("load entries: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), summarize(patient, history, time.Now().UTC()))
		},
	}
	cmd.Flags().StringVar(&patient, "patient", "", "patient id")
	cmd.Flags().IntVar(&limit, "limit", config.DefaultHistoryLimit, "maximum number of entries to read")
	return cmd
}

func trendCmd(g *globalFlags) *cobra.Command {
	return patientCmd(g, "trend", "Show a patient's mood trend",
		func(_ string, entries []models.MoodEntry, _ time.Time) interface{} {
			return clinical.ComputeTrend(entries)
		})
}

func alertsCmd(g *globalFlags) *cobra.Command {
	return patientCmd(g, "alerts", "Show a patient's clinical alerts for the last seven days",
		func(_ string, entries []models.MoodEntry, now time.Time) interface{} {
			return clinical.ComputeAlerts(entries, now)
		})
}

func reportCmd(g *globalFlags) *cobra.Command {
	var days int
	cmd := patientCmd(g, "report", "Build a guardian report",
		func(patient string, entries []models.MoodEntry, now time.Time) interface{} {
			period := models.ReportPeriod{Start: now.AddDate(0, 0, -days), End: now}
			return clinical.BuildGuardianReport(patient, entries, period, now)
		})
	cmd.Flags().IntVar(&days, "days", config.DefaultReportDays, "report period in days")
	return cmd
}

func observationsCmd(g *globalFlags) *cobra.Command {
	return patientCmd(g, "observations", "Export a patient's entries as coded observations",
		func(_ string, entries []models.MoodEntry, _ time.Time) interface{} {
			cat, err := g.loadCatalog()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to load catalog, using built-in catalog")
				cat = catalog.Default()
			}
			b := clinical.NewBuilder(cat)
			records := make([]models.ObservationRecord, 0, len(entries))
			for _, e := range entries {
				records = append(records, b.ToObservation(e))
			}
			return records
		})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "emocheck %s\n", Version)
		},
	}
}
