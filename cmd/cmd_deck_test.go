package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0B"},
		{1023, "1023B"},
		{1536, "1.5K"},
		{5 * 1024 * 1024, "5.0M"},
		{3 * 1024 * 1024 * 1024, "3.0G"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadConfig_CLIOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/deck.yaml", []byte("media_dir: /music\nlog_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, "/etc/deck.yaml", "", "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MediaDir != "/music" || cfg.LogLevel != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}

	cfg, err = loadConfig(fs, "/etc/deck.yaml", "/other", "warn")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MediaDir != "/other" || cfg.LogLevel != "warn" {
		t.Errorf("CLI values not applied: %+v", cfg)
	}

	if _, err := loadConfig(fs, "/etc/deck.yaml", "", "loud"); err == nil {
		t.Error("expected invalid log level to fail validation")
	}
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "one.mp3"), make([]byte, 4096), 0644); err != nil {
		t.Fatal(err)
	}

	params := &ScanParams{Dir: dir, Config: filepath.Join(dir, "missing.yaml")}
	if err := runScan(params); err != nil {
		t.Errorf("scan failed: %v", err)
	}

	params.Dir = filepath.Join(dir, "nope")
	if err := runScan(params); err == nil {
		t.Error("expected scanning a missing directory to fail")
	}
}

func TestSyncCommand(t *testing.T) {
	params := &SyncParams{
		Rounds:    2,
		TickRate:  1000,
		QueueSize: 4,
		LogLevel:  "error",
		Quiet:     true,
	}
	if err := runSync(params); err != nil {
		t.Errorf("sync failed: %v", err)
	}

	params.TickRate = 0
	if err := runSync(params); err == nil {
		t.Error("expected a zero tick rate to fail")
	}
}

func TestCommands_Construct(t *testing.T) {
	for _, tt := range []struct {
		name string
		cmd  func() *cobra.Command
	}{
		{"play", PlayCmd},
		{"scan", ScanCmd},
		{"sync", SyncCmd},
	} {
		c := tt.cmd()
		if c.Use != tt.name {
			t.Errorf("Use = %q, want %q", c.Use, tt.name)
		}
		if c.Short == "" {
			t.Errorf("%s: missing short help", tt.name)
		}
	}
}
