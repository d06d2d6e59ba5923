package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("got %+v, want Default()", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memfuzz.json")
	cfg := Config{
		Target: TargetConfig{Mode: "remote", URL: "ws://localhost:9000"},
		Store:  StoreConfig{Driver: "postgres", DSN: "postgres://localhost/memfuzz"},
		Shell:  ShellConfig{Prompt: "mf> ", ColorDisable: true},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}

func TestLoadRejectsUnknownTargetMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := Save(path, Config{Target: TargetConfig{Mode: "carrier-pigeon"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to reject an unknown target mode")
	}
}

func TestLoadRejectsUnknownStoreDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad2.json")
	if err := Save(path, Config{Store: StoreConfig{Driver: "carrier-pigeon"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to reject an unknown store driver")
	}
}
