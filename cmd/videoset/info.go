package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/huggingface/videoset"
	"github.com/huggingface/videoset/model"
)

var infoCmd = &cobra.Command{
	Use:   "info <namespace/name>",
	Short: "Show a published dataset's manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	handle, err := model.ParseHandle(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := cfg.openStore(cmd.Context())
	if err != nil {
		return err
	}

	remote, err := videoset.Open(cmd.Context(), store, handle, videoset.WithLogger(cliLogger()))
	if err != nil {
		return fmt.Errorf("open %s: %w", handle, err)
	}
	m := remote.Manifest()

	cmd.Printf("Dataset:    %s\n", handle)
	cmd.Printf("Manifest:   %d (commit %s)\n", m.ID, m.CommitID)
	cmd.Printf("Published:  %s (%s)\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"), humanize.Time(m.CreatedAt))
	cmd.Printf("Records:    %s in %d shard(s)\n", humanize.Comma(int64(m.RecordCount)), len(m.Shards))
	cmd.Printf("Size:       %s\n", humanize.IBytes(uint64(m.TotalBytes)))
	cmd.Printf("Encoding:   %s, %s compression\n", m.Codec, m.Compressor)

	cmd.Println("Schema:")
	for _, field := range m.Schema.Fields() {
		cmd.Printf("  %-20s %s\n", field, m.Schema[field])
	}

	if verbose {
		cmd.Println("Shards:")
		for _, s := range m.Shards {
			cmd.Printf("  %s  %6d record(s)  %8s  %s\n", s.Path, s.RecordCount, humanize.IBytes(uint64(s.Bytes)), s.MetadataFile)
		}
	}
	return nil
}
