package config

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Version != currentVersion {
		t.Errorf("Version = %d; want %d", cfg.Version, currentVersion)
	}
	if cfg.ClockMultiplierOverrides == nil {
		t.Error("ClockMultiplierOverrides must never be nil")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.SaveDirectory = "/tmp/saves"
	cfg.ClockMultiplierOverrides["zelda"] = 1.5
	cfg.DefaultPaletteIndex = 2
	pc := uint16(0x0100)
	cfg.Debug.PC = &pc

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded.SaveDirectory != "/tmp/saves" {
		t.Errorf("SaveDirectory = %q; want /tmp/saves", loaded.SaveDirectory)
	}
	if loaded.ClockMultiplierOverrides["zelda"] != 1.5 {
		t.Errorf("ClockMultiplierOverrides[zelda] = %v; want 1.5", loaded.ClockMultiplierOverrides["zelda"])
	}
	if loaded.DefaultPaletteIndex != 2 {
		t.Errorf("DefaultPaletteIndex = %d; want 2", loaded.DefaultPaletteIndex)
	}
	if loaded.Debug.PC == nil || *loaded.Debug.PC != 0x0100 {
		t.Errorf("Debug.PC not round-tripped correctly")
	}
	if loaded.Debug.Read != nil {
		t.Errorf("Debug.Read should stay nil (omitempty)")
	}
}

func TestMigrateBackfillsOldVersion(t *testing.T) {
	cfg := &Config{}
	migrate(cfg)

	if cfg.Version != currentVersion {
		t.Errorf("Version = %d; want %d after migrate", cfg.Version, currentVersion)
	}
	if cfg.ClockMultiplierOverrides == nil {
		t.Error("migrate must initialize a nil ClockMultiplierOverrides map")
	}
}
