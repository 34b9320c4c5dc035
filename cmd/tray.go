package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/uuidtrans/internal/app"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/tray"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Open the tray: hotkeys for lookups and replacements on the clipboard",
	Long: `Open a small terminal UI that indexes the workspace, watches it for
changes, and runs lookups and replacements on the clipboard when a hotkey is
pressed. Hotkeys are configured under "hotkeys" in the config file.`,
	RunE: runTray,
}

func init() {
	rootCmd.AddCommand(trayCmd)
}

func runTray(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tray.New(ctx, a.TrayDeps(ctx))

	if a.Workspace() != "" {
		if _, err := a.Rebuild(ctx); err != nil {
			log.ErrorErr(log.CatTray, "Initial rebuild failed", err)
		}
		if err := a.StartWatcher(ctx); err != nil && !errors.Is(err, app.ErrNoWorkspace) {
			log.ErrorErr(log.CatWatcher, "Could not watch workspace", err)
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running tray: %w", err)
	}
	return nil
}
