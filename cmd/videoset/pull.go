package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/huggingface/videoset"
	"github.com/huggingface/videoset/codec"
	"github.com/huggingface/videoset/model"
)

var pullMaxRecords int

var pullCmd = &cobra.Command{
	Use:   "pull <namespace/name> <dest-dir>",
	Short: "Download a published dataset",
	Long: `Fetches the dataset published under namespace/name and materializes
it in dest-dir: every video file plus a metadata.jsonl with one line
per record.`,
	Args: cobra.ExactArgs(2),
	RunE: runPull,
}

func init() {
	pullCmd.Flags().IntVar(&pullMaxRecords, "max-records", 0, "stop after this many records (0 = all)")
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	handle, err := model.ParseHandle(args[0])
	if err != nil {
		return err
	}
	destDir := args[1]

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

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	metaFile, err := os.Create(filepath.Join(destDir, "metadata.jsonl"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	var (
		count      int
		totalBytes int64
	)
	it := remote.Records(cmd.Context())
	for it.Next() {
		if pullMaxRecords > 0 && count >= pullMaxRecords {
			break
		}
		rec := it.Record()

		n, err := downloadVideo(cmd, rec, filepath.Join(destDir, rec.FileName))
		if err != nil {
			return err
		}
		totalBytes += n

		line := map[string]any{"file_name": rec.FileName}
		for k, v := range rec.Metadata {
			line[k] = v
		}
		encoded, err := codec.Default.Marshal(line)
		if err != nil {
			return fmt.Errorf("encode metadata for %q: %w", rec.FileName, err)
		}
		if _, err := metaFile.Write(append(encoded, '\n')); err != nil {
			return err
		}

		count++
	}
	if err := it.Err(); err != nil {
		return err
	}

	cmd.Printf("Pulled %s record(s), %s of video into %s\n",
		humanize.Comma(int64(count)), humanize.IBytes(uint64(totalBytes)), destDir)
	return nil
}

func downloadVideo(cmd *cobra.Command, rec videoset.Record, dest string) (int64, error) {
	src, err := rec.Open(cmd.Context())
	if err != nil {
		return 0, err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("download %q: %w", rec.FileName, err)
	}
	return n, nil
}
