package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"torex/internal/config"
	"torex/internal/services"
)

func TestConfigInitCreatesSample(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	target := filepath.Join(base, "nested", "torex.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if _, ok := cfg.Categories["tv"]; !ok {
		t.Fatal("sample should configure the tv category")
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("config init --overwrite failed: %v", err)
	}
}

func TestConfigInitSkipsBrokenConfig(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	broken := filepath.Join(base, "broken.toml")
	if err := os.WriteFile(broken, []byte("[defaults\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(base, "fresh.toml")
	if _, _, err := runCLI(t, []string{"-c", broken, "config", "init", "-p", target}); err != nil {
		t.Fatalf("config init should not load the existing config: %v", err)
	}
	_, stderr, err := runCLI(t, []string{"-c", broken, "config", "validate"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, stderr, "configuration failed")
}

func TestConfigFailureLoggedToConsoleOnly(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	logPath := filepath.Join(base, "torex.log")
	cfgPath := filepath.Join(base, "bad.toml")
	body := "[defaults]\nlog_filename = \"" + logPath + "\"\nlog_level = \"loud\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runCLI(t, []string{"-c", cfgPath, "list", base})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, stderr, "configuration failed")
	if _, statErr := os.Stat(logPath); !os.IsNotExist(statErr) {
		t.Fatalf("log file should not be created, stat err=%v", statErr)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "Categories: tv")
	requireContains(t, stdout, "Configuration valid")
	requireNotContains(t, stdout, "defaults were used")
}

func TestConfigShowMasksPassword(t *testing.T) {
	env := setupCLITestEnv(t, withPassword("hunter2"))

	stdout, _, err := env.run(t, "--log_level", "WARN", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	requireNotContains(t, stdout, "hunter2")
	requireContains(t, stdout, "********")

	body := stdout[strings.Index(stdout, "\n")+1:]
	var shown config.Config
	if err := toml.Unmarshal([]byte(body), &shown); err != nil {
		t.Fatalf("config show output is not TOML: %v", err)
	}
	if shown.Defaults.LogLevel != "warn" {
		t.Fatalf("flag override not reflected, got %q", shown.Defaults.LogLevel)
	}
	if shown.Defaults.DestinationDir != env.destination {
		t.Fatalf("unexpected destination %q", shown.Defaults.DestinationDir)
	}
	if len(shown.Categories["tv"].Specific) != 1 {
		t.Fatalf("expected override rule in output, got %+v", shown.Categories["tv"])
	}
}
