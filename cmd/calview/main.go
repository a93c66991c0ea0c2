package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"calview/internal/calendar"
	"calview/internal/config"
	"calview/internal/ics"
	appLog "calview/internal/log"
	"calview/internal/view"
)

const version = "0.1.0"

var (
	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "calview",
	Short:         "Calendar view navigator and event overlay service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		appLog.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/calview/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, showCmd, tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "calview:", err)
		os.Exit(1)
	}
}

// app is everything built from the config file.
type app struct {
	cfg     *config.Config
	nav     *calendar.Navigator
	palette *calendar.Palette
	store   *ics.Store
}

// loadApp reads the config and wires the navigator, palette and event store.
func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	level := appLog.ParseLevel(cfg.LogLevel)
	if verbose {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	nav := calendar.NewNavigator(
		calendar.WithLocation(loc),
		calendar.WithWeekStart(cfg.FirstWeekday()),
	)

	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, src := range cfg.ICS {
		if src.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: src.SourceID(), URL: src.URL})
	}
	store := ics.NewStore(ics.NewFetcher(cfg.CacheDir, nil), sources, ics.StoreOptions{
		Location: loc,
		Horizon:  cfg.Horizon(),
	})

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"refresh", cfg.RefreshCron,
		"horizon_days", cfg.HorizonDays,
		"ics_count", len(sources),
	)

	return &app{
		cfg:     cfg,
		nav:     nav,
		palette: calendar.NewPalette(cfg.Colors),
		store:   store,
	}, nil
}

func (a *app) newController() *view.Controller {
	return view.NewController(a.nav, a.store, a.palette)
}
