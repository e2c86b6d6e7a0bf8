package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulsewatch.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[monitor]
uid = "gateway"
interval = "2s"
timeout = "20s"
grace = "500ms"
restamp = true

[startup]
require = ["db", "ingest"]
wait = "10s"

[[watch]]
uid = "db"
kind = "process"
pids = [4242]

[[watch]]
uid = "ingest"
kind = "file-removal"
paths = ["/var/run/ingest.pid"]

[[watch]]
uid = "drainflag"
kind = "file-creation"
paths = ["/var/run/drain"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Monitor.UID != "gateway" {
		t.Errorf("uid: got %q", cfg.Monitor.UID)
	}
	if cfg.Monitor.Interval.Duration != 2*time.Second {
		t.Errorf("interval: got %v", cfg.Monitor.Interval)
	}
	if cfg.Monitor.Timeout.Duration != 20*time.Second {
		t.Errorf("timeout: got %v", cfg.Monitor.Timeout)
	}
	if cfg.Monitor.Grace.Duration != 500*time.Millisecond {
		t.Errorf("grace: got %v", cfg.Monitor.Grace)
	}
	if !cfg.Monitor.Restamp {
		t.Error("restamp: expected true")
	}
	if len(cfg.Startup.Require) != 2 || cfg.Startup.Wait.Duration != 10*time.Second {
		t.Errorf("startup: got %+v", cfg.Startup)
	}
	if len(cfg.Watches) != 3 {
		t.Fatalf("watches: got %d", len(cfg.Watches))
	}
	if cfg.Watches[0].Kind != KindProcess || cfg.Watches[0].PIDs[0] != 4242 {
		t.Errorf("watch 0: got %+v", cfg.Watches[0])
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[[watch]]
uid = "db"
kind = "process"
pids = [1]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Monitor.Interval != def.Monitor.Interval {
		t.Errorf("expected default interval, got %v", cfg.Monitor.Interval)
	}
	if cfg.Monitor.Timeout != def.Monitor.Timeout {
		t.Errorf("expected default timeout, got %v", cfg.Monitor.Timeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name: "interval above timeout",
			content: `
[monitor]
interval = "30s"
timeout = "5s"
`,
			errPart: "exceeds timeout",
		},
		{
			name: "watch without uid",
			content: `
[[watch]]
kind = "process"
pids = [1]
`,
			errPart: "uid is required",
		},
		{
			name: "duplicate watch uid",
			content: `
[[watch]]
uid = "a"
kind = "process"
pids = [1]

[[watch]]
uid = "a"
kind = "process"
pids = [2]
`,
			errPart: "duplicate uid",
		},
		{
			name: "unknown kind",
			content: `
[[watch]]
uid = "a"
kind = "telepathy"
`,
			errPart: "unknown kind",
		},
		{
			name: "process watch without pids",
			content: `
[[watch]]
uid = "a"
kind = "process"
`,
			errPart: "needs pids",
		},
		{
			name: "file watch without paths",
			content: `
[[watch]]
uid = "a"
kind = "file-removal"
`,
			errPart: "needs paths",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Errorf("expected %q in error, got %v", tc.errPart, err)
			}
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("expected 90s, got %v", d.Duration)
	}

	text, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "1m30s" {
		t.Errorf("expected 1m30s, got %s", text)
	}

	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected error for a bogus duration")
	}
}
