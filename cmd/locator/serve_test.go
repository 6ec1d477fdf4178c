package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/txbooks/locator/internal/config"
	"github.com/txbooks/locator/internal/locate"
)

func TestPIDFileRoundTrip(t *testing.T) {
	path := pidFilePath(t.TempDir())

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}

	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("expected error after removePIDFile")
	}
}

func TestPIDFileCreatesDataDir(t *testing.T) {
	path := pidFilePath(filepath.Join(t.TempDir(), "nested", "data"))
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
}

func TestMCPListenAddr(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.MCPPort = 4601

	if got := mcpListenAddr(cfg); got != "127.0.0.1:4601" {
		t.Errorf("mcpListenAddr = %q, want 127.0.0.1:4601", got)
	}
}

func TestCountLabel(t *testing.T) {
	if got := countLabel(7, 100); got != "7" {
		t.Errorf("countLabel(7, 100) = %q, want 7", got)
	}
	if got := countLabel(100, 100); got != "100+" {
		t.Errorf("countLabel(100, 100) = %q, want 100+", got)
	}
}

func TestBuildLocatorSources(t *testing.T) {
	cfg := config.Config{}
	cfg.Sources.QueryTimeout = "5s"

	loc := buildLocator(cfg, slog.New(slog.DiscardHandler))

	want := []locate.Jurisdiction{locate.Federal, locate.Texas}
	got := loc.Jurisdictions()
	if len(got) != len(want) {
		t.Fatalf("jurisdictions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("jurisdictions[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuildLocatorBadTimeoutFallsBack(t *testing.T) {
	cfg := config.Config{}
	cfg.Sources.QueryTimeout = "soon"

	// Must not panic; falls back to the default timeout.
	if loc := buildLocator(cfg, slog.New(slog.DiscardHandler)); loc == nil {
		t.Fatal("buildLocator returned nil")
	}
}
