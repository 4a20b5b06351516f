package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/huggingface/videoset"
	"github.com/huggingface/videoset/model"
)

var pushCmd = &cobra.Command{
	Use:   "push <namespace/name> <video-dir> <metadata-dir>",
	Short: "Build a dataset from local files and publish it",
	Long: `Pairs the .mp4 files in video-dir with the .json files in
metadata-dir by base name, shards them and publishes the dataset to
the configured store under namespace/name. Nothing is uploaded when
any video lacks metadata or vice versa.`,
	Args: cobra.ExactArgs(3),
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	handle, err := model.ParseHandle(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.buildOptions()
	if err != nil {
		return err
	}
	store, err := cfg.openStore(cmd.Context())
	if err != nil {
		return err
	}

	start := time.Now()

	ds, err := videoset.Build(cmd.Context(), args[1], args[2], opts...)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	cmd.Printf("Built %s records (%d fields)\n", humanize.Comma(int64(ds.Len())), len(ds.Schema()))

	m, err := videoset.Publish(cmd.Context(), store, handle, ds)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	cmd.Printf("Published %s: manifest %d, %d shard(s), %s, commit %s in %s\n",
		handle, m.ID, len(m.Shards), humanize.IBytes(uint64(m.TotalBytes)),
		m.CommitID, time.Since(start).Round(time.Millisecond))
	return nil
}
