package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/emilianohg/carbontrack/internal/carbon"
	"github.com/emilianohg/carbontrack/internal/catalog"
	"github.com/emilianohg/carbontrack/internal/config"
	"github.com/emilianohg/carbontrack/internal/db"
	"github.com/emilianohg/carbontrack/internal/leaderboard"
	"github.com/emilianohg/carbontrack/internal/ledger"
	"github.com/emilianohg/carbontrack/internal/logging"
	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
	"github.com/emilianohg/carbontrack/internal/scheduler"
	"github.com/emilianohg/carbontrack/internal/tui"
	"github.com/emilianohg/carbontrack/internal/tui/screens"
)

const (
	jobAssign = "assign"
	jobPoints = "points"
)

var (
	configPath string
	jsonOutput bool
)

// app holds everything a command needs, wired from the config file.
type app struct {
	cfg       *config.Config
	logs      *logging.Result
	db        *sql.DB
	store     *repository.Store
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	emissions *carbon.Service
	board     *leaderboard.Analyzer
	assigner  *scheduler.AutoAssigner
	scorer    *scheduler.PointScorer
	loc       *time.Location
	clock     clockwork.Clock
}

func setup(ctx context.Context, console io.Writer) (*app, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	logs, err := logging.New(logging.Options{Level: cfg.Log.Level, ErrFile: cfg.Log.File, Console: console})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	log := logs.Logger

	loc, err := cfg.Location()
	if err != nil {
		logs.Close()
		return nil, err
	}

	database, err := db.OpenAndMigrate(cfg.Database.Path)
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := repository.NewStore(database)

	a := &app{cfg: cfg, logs: logs, db: database, store: store, loc: loc, clock: clockwork.NewRealClock()}
	if err := a.loadCatalog(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.ledger = ledger.New(store, ledger.Options{
		Clock:      a.clock,
		Location:   loc,
		Categories: cfg.Ledger.Categories,
		Logger:     log,
	})
	a.emissions = carbon.NewService(a.catalog, store, a.ledger, carbon.Options{
		Clock:      a.clock,
		MaxAgeDays: cfg.Emissions.MaxAgeDays,
		Logger:     log,
	})
	a.board = leaderboard.New(store, leaderboard.Options{
		Clock:    a.clock,
		Location: loc,
		Weights:  leaderboard.Weights{Total: cfg.Leaderboard.TotalWeight, Org: cfg.Leaderboard.OrgWeight},
		Logger:   log,
	})
	a.assigner = scheduler.NewAutoAssigner(store, a.ledger, a.catalog,
		cfg.Catalog.PerWorkerType, models.Scope(cfg.Catalog.PerWorkerScope), a.clock, log)
	a.scorer = scheduler.NewPointScorer(store, a.clock, loc, log)
	return a, nil
}

// loadCatalog seeds an empty factor table before building the index.
func (a *app) loadCatalog(ctx context.Context) error {
	existing, err := a.store.Factors.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read factors: %w", err)
	}
	if len(existing) == 0 {
		factors, err := a.seedFactors()
		if err != nil {
			return err
		}
		if err := catalog.Seed(ctx, a.store.Factors, factors); err != nil {
			return fmt.Errorf("seed factors: %w", err)
		}
		a.logs.Logger.Info().Int("factors", len(factors)).Msg("emission factors seeded")
	}

	a.catalog, err = catalog.Load(ctx, a.store.Factors)
	return err
}

func (a *app) seedFactors() ([]models.EmissionFactor, error) {
	if a.cfg.Catalog.SeedFile != "" {
		return catalog.SeedFromFile(a.cfg.Catalog.SeedFile)
	}
	return catalog.DefaultSeed()
}

func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(
		scheduler.Options{Clock: a.clock, Location: a.loc, Logger: a.logs.Logger},
		scheduler.Job{Name: jobAssign, Day: a.cfg.Scheduler.AssignDay, Run: a.assigner.Run},
		scheduler.Job{Name: jobPoints, Day: a.cfg.Scheduler.PointsDay, Run: a.scorer.Run, RunOnStart: a.cfg.Scheduler.PointsOnStart},
	)
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	a.logs.Close()
}

// withApp wires the app for a command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := setup(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

var rootCmd = &cobra.Command{
	Use:          "carbontrack",
	Short:        "Organizational carbon accounting",
	Long:         `Carbontrack converts activity records into carbon values, keeps per-company totals and runs the monthly assignment and point-scoring jobs.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// the alt screen owns the terminal; errors still reach the log file
		a, err := setup(cmd.Context(), io.Discard)
		if err != nil {
			return err
		}
		defer a.Close()

		return tui.Run(screens.Deps{
			Emissions: a.emissions,
			Board:     a.board,
			Assigner:  a.assigner,
			Scorer:    a.scorer,
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monthly jobs until interrupted",
	Long: `Serve runs the auto-assignment and point-scoring jobs at local midnight on
their configured day of the month, until interrupted.

A job's next run is always a future midnight. Starting serve after midnight on
a job's day skips that month's run; use "carbontrack jobs run <job>" to run it
by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, func(_ context.Context, a *app) error {
			s, err := a.newScheduler()
			if err != nil {
				return err
			}
			a.logs.Logger.Info().
				Int("assign_day", a.cfg.Scheduler.AssignDay).
				Int("points_day", a.cfg.Scheduler.PointsDay).
				Str("timezone", a.loc.String()).
				Msg("scheduler started")
			return s.Run(ctx)
		})
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the database",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			status, err := db.GetMigrationStatus(a.db)
			if err != nil {
				return err
			}
			fmt.Printf("Database: %s\n", a.cfg.Database.Path)
			fmt.Printf("Schema version: %d of %d\n", status.CurrentVersion, status.LatestVersion)
			if status.Dirty {
				fmt.Println("Warning: last migration did not complete (dirty)")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.carbontrack/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	dbCmd.AddCommand(dbStatusCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
