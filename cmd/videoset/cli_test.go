package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestConfig points the CLI at a local store rooted in a temp dir.
func writeTestConfig(t *testing.T, storeRoot string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videoset.toml")
	cfg := "store = \"local\"\n\n[local]\nroot = \"" + storeRoot + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func writeTestInput(t *testing.T) (videoDir, metaDir string) {
	t.Helper()
	videoDir, metaDir = t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(videoDir, "a.mp4"), []byte("video:a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, "a.json"), []byte(`{"animal":"cat"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(videoDir, "b.mp4"), []byte("video:b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, "b.json"), []byte(`{"animal":"dog"}`), 0o600))
	return videoDir, metaDir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
		verbose = false
		pullMaxRecords = 0
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestPushPullInfo(t *testing.T) {
	storeRoot := t.TempDir()
	cfg := writeTestConfig(t, storeRoot)
	videoDir, metaDir := writeTestInput(t)

	out, err := runCLI(t, "push", "acme/clips", videoDir, metaDir, "--config", cfg)
	require.NoError(t, err)
	require.Contains(t, out, "Built 2 records")
	require.Contains(t, out, "Published acme/clips")

	// The local store now holds the sharded layout.
	require.FileExists(t, filepath.Join(storeRoot, "acme", "clips", "CURRENT"))
	require.FileExists(t, filepath.Join(storeRoot, "acme", "clips", "0000", "a.mp4"))
	require.FileExists(t, filepath.Join(storeRoot, "acme", "clips", "0000", "metadata.jsonl"))

	out, err = runCLI(t, "info", "acme/clips", "--config", cfg)
	require.NoError(t, err)
	require.Contains(t, out, "Records:    2 in 1 shard(s)")
	require.Contains(t, out, "Size:")
	require.Contains(t, out, "animal")

	destDir := t.TempDir()
	out, err = runCLI(t, "pull", "acme/clips", destDir, "--config", cfg)
	require.NoError(t, err)
	require.Contains(t, out, "Pulled 2 record(s)")

	data, err := os.ReadFile(filepath.Join(destDir, "a.mp4"))
	require.NoError(t, err)
	require.Equal(t, []byte("video:a"), data)

	meta, err := os.ReadFile(filepath.Join(destDir, "metadata.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(meta), `"file_name":"a.mp4"`)
	require.Contains(t, string(meta), `"animal":"dog"`)
}

func TestPushRejectsIncompletePairing(t *testing.T) {
	storeRoot := t.TempDir()
	cfg := writeTestConfig(t, storeRoot)
	videoDir, metaDir := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(videoDir, "orphan.mp4"), []byte("x"), 0o600))

	_, err := runCLI(t, "push", "acme/clips", videoDir, metaDir, "--config", cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing association")

	// Nothing was published.
	require.NoFileExists(t, filepath.Join(storeRoot, "acme", "clips", "CURRENT"))
}

func TestPushRejectsBadHandle(t *testing.T) {
	_, err := runCLI(t, "push", "no-slash", t.TempDir(), t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid dataset handle")
}

func TestInfoUnknownDataset(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())
	_, err := runCLI(t, "info", "acme/missing", "--config", cfg)
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "does-not-exist.toml")
	t.Cleanup(func() { configPath = "" })

	_, err := loadConfig()
	require.Error(t, err)

	configPath = ""
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Store)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := &Config{Store: "ftp"}
	_, err := cfg.openStore(t.Context())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown store backend")
}

func TestBuildOptionsValidation(t *testing.T) {
	cfg := &Config{Upload: UploadConfig{RateLimit: "not-a-size"}}
	_, err := cfg.buildOptions()
	require.Error(t, err)

	cfg = &Config{Upload: UploadConfig{Codec: "nope"}}
	_, err = cfg.buildOptions()
	require.Error(t, err)

	cfg = &Config{Upload: UploadConfig{Compressor: "nope"}}
	_, err = cfg.buildOptions()
	require.Error(t, err)

	cfg = &Config{Upload: UploadConfig{RateLimit: "10 MiB", Codec: "json", Compressor: "zstd"}}
	opts, err := cfg.buildOptions()
	require.NoError(t, err)
	require.NotEmpty(t, opts)
}
