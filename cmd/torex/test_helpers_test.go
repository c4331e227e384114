package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"torex/internal/testsupport"
)

const testRelease = "Better.Call.Saul.S01E02.720p.HDTV.X264-DIMENSION"

type cliTestEnv struct {
	baseDir     string
	configPath  string
	destination string
	logPath     string
	archive     *testsupport.FakeArchive
}

type envOption func(*envSettings)

type envSettings struct {
	history    bool
	password   string
	extensions []string
}

func withHistory() envOption { return func(s *envSettings) { s.history = true } }

func withPassword(p string) envOption { return func(s *envSettings) { s.password = p } }

func withExtensions(exts ...string) envOption { return func(s *envSettings) { s.extensions = exts } }

func setupCLITestEnv(t *testing.T, opts ...envOption) *cliTestEnv {
	t.Helper()

	var settings envSettings
	for _, opt := range opts {
		opt(&settings)
	}

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "config.toml"),
		destination: filepath.Join(base, "media"),
		logPath:     filepath.Join(base, "state", "torex.log"),
		archive: &testsupport.FakeArchive{Members: []testsupport.Member{
			{Name: testRelease + ".mkv", Content: "episode-bytes"},
			{Name: "Sample", Dir: true},
			{Name: "Sample/sample.mkv", Content: "sample"},
			{Name: "release.nfo", Content: "nfo"},
		}},
	}
	if err := os.MkdirAll(env.destination, 0o755); err != nil {
		t.Fatalf("mkdir destination: %v", err)
	}

	content := fmt.Sprintf(`[defaults]
destination_dir = %q
log_filename = %q
log_level = "debug"
log_format = "json"

[categories.tv]
path = "TV"
extensions = [%s]

[[categories.tv.specific]]
title = "Breaking Bad"
path = %q

[extraction]
overwrite = false
check_free_space = true
password = %q

[lock]
path = %q
timeout_seconds = 5

[history]
enabled = %t
path = %q
`,
		env.destination,
		env.logPath,
		quoteList(settings.extensions),
		filepath.Join(base, "priority"),
		settings.password,
		filepath.Join(base, "state", "torex.lock"),
		settings.history,
		filepath.Join(base, "state", "history.db"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	original := openArchive
	openArchive = env.archive.Opener()
	t.Cleanup(func() { openArchive = original })
	return env
}

// download creates a torrent download directory holding a single archive.
func (e *cliTestEnv) download(t *testing.T, release string) string {
	t.Helper()
	return testsupport.NewDownload(t, release, "release.rar", "release.r00", "release.nfo")
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config_file", e.configPath}, args...))
}

func (e *cliTestEnv) readLog(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func runCLI(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
