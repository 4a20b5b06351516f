package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/huggingface/videoset"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "videoset",
	Short: "Package and publish sharded video datasets",
	Long: `videoset pairs local video files with their JSON metadata, shards
them into a dataset layout and publishes the result to a blob store
(local directory, S3 or MinIO). Published datasets are read back
lazily with pull and inspected with info.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: videoset.toml, then $HOME/.config/videoset/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// cliLogger builds the logger commands hand to the library.
func cliLogger() *videoset.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return videoset.NewTextLogger(level)
}
