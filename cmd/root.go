// Package commands implements CLI commands
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"inputbridge/config"
	"inputbridge/logging"
	"inputbridge/util"
)

var (
	// These variables are populated by the persistent flags and are available to all subcommands.
	serverAddress string
	port          int
	keyPath       string
	configPath    string
	enableLogging bool

	// cfg and logger are ready once PersistentPreRunE has run.
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           util.ProgramName,
	Version:       util.GitHead,
	Short:         "types text into the focused field of a device.",
	Long:          `A bridge that injects text into the focused editable field of an Android device, using HTTPS and SSH key authentication.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// This function runs before any subcommand executes.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if enableLogging {
			level = slog.LevelDebug
		}
		logger = logging.New(level)

		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// loadConfig resolves settings from the config file, then the environment,
// then flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, err
		}
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("server") {
		c.Server.Address = serverAddress
	}
	if flags.Changed("port") {
		c.Server.Port = port
	}
	if flags.Changed("key") {
		c.Server.Key = keyPath
	}
	applyHostFlags(cmd, c)
	return c, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Hide the default completion command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "localhost", fmt.Sprintf("Server address (or %s)", util.EnvVarServer))
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", util.DefaultPort, fmt.Sprintf("Server port (or %s)", util.EnvVarPort))
	rootCmd.PersistentFlags().StringVar(&keyPath, "key", "", fmt.Sprintf("Path to private key (or %s)", util.EnvVarKey))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("Path to config file (default ~/.config/%s/config.toml)", util.ProgramName))
	rootCmd.PersistentFlags().BoolVar(&enableLogging, "log", false, "enable logging output for debugging.")
}
