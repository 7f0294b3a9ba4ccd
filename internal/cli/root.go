// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pacsforge/qido/internal/config"
)

var (
	// Global flags
	archiveName     string // Named archive from config
	archivePathFlag string // Explicit path (rare)
	configPath      string
	jsonOutput      bool

	// Resolved values
	resolvedArchivePath string
	cfg                 *config.Config
	log                 zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qido",
	Short: "qido - DICOM object search over a local archive",
	Long: `qido searches a local SQLite imaging archive with QIDO-RS matching
semantics: wildcard, range and list matching over the Patient, Study,
Series and Instance levels, with paged results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that don't touch an archive skip resolution
		switch cmd.Name() {
		case "init", "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log = newLogger(cfg.Log.Level)

		if archivePathFlag != "" {
			resolvedArchivePath = archivePathFlag
		} else {
			resolvedArchivePath, err = cfg.ArchivePath(archiveName)
			if err != nil {
				return fmt.Errorf(`%w

Either:
  1. Use --archive <name> (from config)
  2. Use --archive-path /path/to/archive.db
  3. Set default_archive in ~/.config/qido/config.toml
  4. Run 'qido init /path/to/archive.db' to create one`, err)
			}
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&archiveName, "archive", "a", "", "Named archive from config")
	rootCmd.PersistentFlags().StringVar(&archivePathFlag, "archive-path", "", "Explicit path to the archive database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// getArchivePath returns the resolved archive database path.
func getArchivePath() string {
	return resolvedArchivePath
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	return cfg
}
