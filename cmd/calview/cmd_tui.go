package main

import (
	"github.com/spf13/cobra"

	appLog "calview/internal/log"
	"calview/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Navigate the calendar interactively in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		// Logging would draw over the alternate screen.
		appLog.SetLevel(appLog.LevelError)
		if err := a.store.Refresh(cmd.Context()); err != nil {
			appLog.Error("refresh incomplete", err)
		}
		return tui.Run(a.newController())
	},
}
