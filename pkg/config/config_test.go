package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Name != "ironbot" {
		t.Errorf("default bot name: got %q", cfg.Bot.Name)
	}
	if cfg.Memory.ExtractEveryN != 10 {
		t.Errorf("default extract_every_n: got %d, want 10", cfg.Memory.ExtractEveryN)
	}
	if cfg.Memory.ConfidenceThreshold != 0.7 {
		t.Errorf("default confidence threshold: got %v, want 0.7", cfg.Memory.ConfidenceThreshold)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"bot": {"name": "testbot", "owner_id": "42"},
		"memory": {"extract_every_n": 3},
		"channels": {"discord": {"enabled": true, "token": "abc"}}
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Name != "testbot" {
		t.Errorf("bot name: got %q, want testbot", cfg.Bot.Name)
	}
	if cfg.Bot.OwnerID != "42" {
		t.Errorf("owner id: got %q, want 42", cfg.Bot.OwnerID)
	}
	if cfg.Memory.ExtractEveryN != 3 {
		t.Errorf("extract_every_n: got %d, want 3", cfg.Memory.ExtractEveryN)
	}
	if !cfg.Channels.Discord.Enabled || cfg.Channels.Discord.Token != "abc" {
		t.Error("discord channel config not applied")
	}
	// Untouched sections keep defaults.
	if cfg.Memory.PromptLimit != 5 {
		t.Errorf("prompt_limit default lost: got %d", cfg.Memory.PromptLimit)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"bot": {"name": "from-file"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IRONBOT_NAME", "from-env")
	t.Setenv("IRONBOT_MEMORY_EXTRACT_EVERY_N", "7")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Name != "from-env" {
		t.Errorf("env override: got %q, want from-env", cfg.Bot.Name)
	}
	if cfg.Memory.ExtractEveryN != 7 {
		t.Errorf("env override: got %d, want 7", cfg.Memory.ExtractEveryN)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := DefaultConfig()
	cfg.Bot.Name = "saved"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Bot.Name != "saved" {
		t.Errorf("round trip: got %q, want saved", loaded.Bot.Name)
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := expandHome("~/data"); got != home+"/data" {
		t.Errorf("expandHome(~/data): got %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expandHome(/abs/path): got %q", got)
	}
	if got := expandHome(""); got != "" {
		t.Errorf("expandHome(empty): got %q", got)
	}
}
