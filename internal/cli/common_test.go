package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		verbose, debug bool
		expected       []string
	}{
		{false, false, []string{"[WARN] 09:05:07: w 3", "[ERROR] 09:05:07: e 4"}},
		{true, false, []string{"[INFO] 09:05:07: i 1", "[WARN] 09:05:07: w 3", "[ERROR] 09:05:07: e 4"}},
		{true, true, []string{"[INFO] 09:05:07: i 1", "[DEBUG] 09:05:07: d 2", "[WARN] 09:05:07: w 3", "[ERROR] 09:05:07: e 4"}},
	}

	for i, tt := range tests {
		var buf bytes.Buffer
		l := NewLoggerTo(&buf, tt.verbose, tt.debug)
		l.now = func() time.Time { return time.Date(2026, 1, 2, 9, 5, 7, 0, time.UTC) }

		l.Info("i %d", 1)
		l.Debug("d %d", 2)
		l.Warn("w %d", 3)
		l.Error("e %d", 4)

		got := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if strings.Join(got, "|") != strings.Join(tt.expected, "|") {
			t.Errorf("tests[%d] - log output wrong. expected=%q, got=%q", i, tt.expected, got)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "absent.json"))
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Color != ColorAuto || cfg.WorkDir != "." || cfg.Jobs < 1 {
			t.Errorf("defaults wrong. got=%+v", cfg)
		}
	})

	t.Run("fields decoded", func(t *testing.T) {
		path := write("ok.json", `{"verbose": true, "target": "11", "jobs": 3, "max_errors": 20, "color": "never"}`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if !cfg.Verbose || cfg.Target != "11" || cfg.Jobs != 3 || cfg.MaxErrors != 20 || cfg.Color != ColorNever {
			t.Errorf("config wrong. got=%+v", cfg)
		}
		if cfg.WorkDir != "." {
			t.Errorf("unset field lost its default. got=%q", cfg.WorkDir)
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		for _, content := range []string{
			`{"color": "sometimes"}`,
			`{"jobs": -1}`,
			`{"max_errors": -5}`,
			`{"verbose": `,
		} {
			if _, err := LoadConfig(write("bad.json", content)); err == nil {
				t.Errorf("expected an error for %s", content)
			}
		}
	})
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	cfg := DefaultConfig()
	cfg.Target = "21"
	cfg.Jobs = 2
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("config changed. expected=%+v, got=%+v", cfg, loaded)
	}
}

func TestUseColor(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tests := []struct {
		mode     string
		expected bool
	}{
		{ColorAlways, true},
		{ColorNever, false},
		{ColorAuto, false}, // a regular file is never a terminal
	}
	for _, tt := range tests {
		cfg := &Config{Color: tt.mode}
		if got := cfg.UseColor(f); got != tt.expected {
			t.Errorf("UseColor(%s) wrong. expected=%t, got=%t", tt.mode, tt.expected, got)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "jmmc", true)
	if !strings.Contains(buf.String(), `"version": "`+Version+`"`) {
		t.Errorf("JSON version missing. got=%s", buf.String())
	}

	buf.Reset()
	PrintVersion(&buf, "jmmc", false)
	if !strings.HasPrefix(buf.String(), "jmmc v"+Version+"\n") {
		t.Errorf("text version wrong. got=%s", buf.String())
	}
}
