package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"calview/internal/calendar"
	appLog "calview/internal/log"
	"calview/internal/view"
)

var (
	showGranularity string
	showSteps       int
	showAt          string
	showEvents      bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the view title after navigating",
	Long: `Builds the startup view, switches to --granularity, optionally jumps to
--at (YYYY-MM-DD), then advances --steps units (negative retreats) and prints
the resulting title and window.

Example:
  calview show --granularity monthly --at 2024-01-31 --steps 1`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showGranularity, "granularity", "g", "Yearly", "Yearly, Monthly, Weekly, Daily or All")
	showCmd.Flags().IntVarP(&showSteps, "steps", "n", 0, "Units to move; negative moves backward")
	showCmd.Flags().StringVar(&showAt, "at", "", "Reference date (YYYY-MM-DD) instead of today")
	showCmd.Flags().BoolVar(&showEvents, "events", false, "Refresh feeds and list events in the window")
}

func runShow(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	g, err := calendar.ParseGranularity(showGranularity)
	if err != nil {
		return err
	}

	ctrl := a.newController()
	if err := navigate(ctrl, g, showAt, showSteps, a.nav.Location()); err != nil {
		return err
	}

	if showEvents {
		if err := a.store.Refresh(cmd.Context()); err != nil {
			appLog.Error("refresh incomplete", err)
		}
	}
	return printView(cmd.Context(), cmd.OutOrStdout(), ctrl, showEvents)
}

// navigate applies the show flags to ctrl in order: granularity, jump,
// steps.
func navigate(ctrl *view.Controller, g calendar.Granularity, at string, steps int, loc *time.Location) error {
	if _, err := ctrl.SetGranularity(g); err != nil {
		return err
	}
	if at != "" {
		t, err := time.ParseInLocation("2006-01-02", at, loc)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", at, err)
		}
		if _, err := ctrl.Jump(t); err != nil {
			return err
		}
	}

	step := ctrl.Advance
	if steps < 0 {
		step, steps = ctrl.Retreat, -steps
	}
	for i := 0; i < steps; i++ {
		if _, err := step(); err != nil {
			return err
		}
	}
	return nil
}

func printView(ctx context.Context, w io.Writer, ctrl *view.Controller, withEvents bool) error {
	state := ctrl.State()
	fmt.Fprintf(w, "%s (%s)\n", state.Title(), state.Granularity())

	start, end, bounded, err := ctrl.Window()
	if err != nil {
		return err
	}
	if bounded {
		fmt.Fprintf(w, "window: %s .. %s\n", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	if !withEvents {
		return nil
	}
	markers, err := ctrl.Overlay(ctx)
	if err != nil {
		return err
	}
	for _, m := range markers {
		fmt.Fprintf(w, "  %s  %s  %s\n", m.Event.Start.Format("2006-01-02 15:04"), m.Color, m.Event.Title)
	}
	return nil
}
