package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/uuidtrans/internal/config"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/workspace"
)

var workspaceSetCmd = &cobra.Command{
	Use:   "workspace:set <dir>",
	Short: "Select the workspace directory to index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := workspace.ValidateRoot(args[0])
		if err != nil {
			return err
		}
		if configPath == "" {
			return fmt.Errorf("no config file to save to; pass --config")
		}
		if err := config.SaveWorkspace(configPath, dir); err != nil {
			return fmt.Errorf("saving workspace: %w", err)
		}
		log.Info(log.CatConfig, "Workspace selected", "workspace", dir, "config", configPath)

		// index once so problems show up now rather than on first lookup
		cfg.Workspace = dir
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		report, err := a.Rebuild(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Workspace set to %s (%d elements, %d warnings)\n",
			dir, report.Elements, len(report.Warnings))
		return nil
	},
}

var showTypeCmd = &cobra.Command{
	Use:       "settings:show-type <true|false>",
	Short:     "Prefix lookup results with the element type",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"true", "false"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", args[0])
		}
		if configPath == "" {
			return fmt.Errorf("no config file to save to; pass --config")
		}
		if err := config.SaveShowType(configPath, v); err != nil {
			return fmt.Errorf("saving show_type: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "show_type = %t\n", v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceSetCmd, showTypeCmd)
}
