package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/uuidtrans/internal/app"
	"github.com/zjrosen/uuidtrans/internal/clipboard"
	"github.com/zjrosen/uuidtrans/internal/config"
	"github.com/zjrosen/uuidtrans/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply cannot race with the input loop.
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	cfg       config.Config
	debugFlag bool

	// configPath is the file settings are saved to.
	configPath string

	// newClipboard is replaced in tests.
	newClipboard = func() clipboard.Clipboard { return clipboard.System{} }
)

var rootCmd = &cobra.Command{
	Use:   "uuidtrans",
	Short: "Translate between element IDs and names",
	Long: `uuidtrans indexes a workspace of element files (YAML, JSON, XML) and
translates between element IDs (UUIDs) and human names, one at a time or in
bulk over a block of text.

Run without a subcommand to open the tray.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runTray,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentPreRunE = setup

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .uuidtrans/config.yaml, then ~/.config/uuidtrans/config.yaml)")
	rootCmd.PersistentFlags().StringP("workspace", "w", "",
		"workspace directory to index (overrides config)")
	rootCmd.PersistentFlags().Bool("show-type", false,
		"prefix results with the element type")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging (or set UUIDTRANS_DEBUG)")
}

// initConfig loads .env, then the config file, then UUIDTRANS_* variables
// and flags on top.
func initConfig() {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("UUIDTRANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = v.BindPFlag("show_type", rootCmd.PersistentFlags().Lookup("show-type"))

	configPath = resolveConfigFile(v)
	cfg = config.Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring invalid config %s: %v\n", configPath, err)
		cfg = config.Defaults()
	}
}

func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("show_type", d.ShowType)
	v.SetDefault("include", d.Include)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("hotkeys.search_id", d.Hotkeys.SearchID)
	v.SetDefault("hotkeys.search_name", d.Hotkeys.SearchName)
	v.SetDefault("hotkeys.replace_ids", d.Hotkeys.ReplaceIDs)
	v.SetDefault("hotkeys.replace_names", d.Hotkeys.ReplaceNames)
	v.SetDefault("hotkeys.rebuild", d.Hotkeys.Rebuild)
	v.SetDefault("hotkeys.toggle_type", d.Hotkeys.ToggleType)
	v.SetDefault("hotkeys.quit", d.Hotkeys.Quit)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("pool.workers", d.Pool.Workers)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
}

// resolveConfigFile reads the first config found and returns its path.
// Lookup order:
//  1. --config
//  2. .uuidtrans/config.yaml (current directory)
//  3. ~/.config/uuidtrans/config.yaml
//
// When none exists the default template is written to the --config path or
// the user config path.
func resolveConfigFile(v *viper.Viper) string {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(config.LocalConfigPath); err == nil {
			path = config.LocalConfigPath
		} else {
			path = config.DefaultConfigPath()
		}
	}
	if path == "" {
		return ""
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if writeErr := config.WriteDefaultConfig(path); writeErr != nil {
			// continue with defaults and no file
			return path
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", path, err)
	}
	return path
}

// setup enables logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	debug := os.Getenv("UUIDTRANS_DEBUG") != "" || debugFlag
	if !debug {
		return nil
	}

	logPath := os.Getenv("UUIDTRANS_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
	}

	var (
		cleanup func()
		err     error
	)
	if cmd == rootCmd || cmd == trayCmd {
		cleanup, err = log.InitWithTeaLog(logPath, "uuidtrans")
	} else {
		cleanup, err = log.Init(logPath)
	}
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	cobra.OnFinalize(cleanup)

	log.Info(log.CatConfig, "uuidtrans starting",
		"command", cmd.Name(), "config", configPath, "logPath", logPath)
	return nil
}

// newApp builds the application from the loaded configuration.
func newApp() (*app.App, error) {
	return app.New(app.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Clipboard:  newClipboard(),
	})
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
