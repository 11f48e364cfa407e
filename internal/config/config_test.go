package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
name = "Test Shard"
max_players = 5

[world]
tick_rate = "60ms"

[rate_limit]
enabled = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Name != "Test Shard" || cfg.Server.MaxPlayers != 5 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.World.TickRate.Duration != 60*time.Millisecond {
		t.Errorf("tick rate = %v", cfg.World.TickRate)
	}
	if cfg.RateLimit.Enabled {
		t.Error("rate limit not disabled")
	}

	// Untouched sections keep their defaults.
	def := Defaults()
	if cfg.Limits != def.Limits {
		t.Errorf("limits = %+v, want defaults %+v", cfg.Limits, def.Limits)
	}
	if cfg.Map.DoorCloseRate != def.Map.DoorCloseRate {
		t.Errorf("door close rate = %d", cfg.Map.DoorCloseRate)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("start time not stamped")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing file loaded without error")
	}
}

func TestLoadRejectsBadSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nname="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("broken toml loaded without error")
	}
}
