package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:5000" {
		t.Fatalf("wrong api default: %q", cfg.APIBaseURL)
	}
	if cfg.WSURL != "ws://localhost:5000/ws" {
		t.Fatalf("wrong ws default: %q", cfg.WSURL)
	}
	if cfg.FPS != DefaultFPS {
		t.Fatalf("wrong fps default: %d", cfg.FPS)
	}
	if !cfg.Audio {
		t.Fatal("audio should default on")
	}
	if cfg.SnapshotPolicy() != SnapshotIgnoreAfterEnd {
		t.Fatal("post-end snapshots should default to ignore")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"api": {"baseUrl": "https://game.example.com", "wsUrl": "wss://game.example.com/ws"},
		"render": {"fps": 60},
		"audio": {"enabled": false},
		"match": {"postEndSnapshots": "apply"}
	}`
	if err := os.WriteFile(filepath.Join(dir, "coredefender.cfg.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://game.example.com" {
		t.Fatalf("api url not read: %q", cfg.APIBaseURL)
	}
	if cfg.FPS != 60 {
		t.Fatalf("fps not read: %d", cfg.FPS)
	}
	if cfg.Audio {
		t.Fatal("audio override lost")
	}
	if cfg.SnapshotPolicy() != SnapshotApplyAfterEnd {
		t.Fatal("snapshot policy override lost")
	}
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "coredefender.cfg.json"), []byte("{broken"), 0o644)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected an error for an unparsable config file")
	}
}
