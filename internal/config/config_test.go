package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 8833 {
		t.Errorf("port = %d, want 8833", cfg.API.Port)
	}
	if cfg.Chart.Threshold != 33 || cfg.Chart.Multiplier != 3 || cfg.Chart.Default != 100 {
		t.Errorf("chart policy = %+v", cfg.Chart)
	}
	if cfg.Fees.Window != 144 {
		t.Errorf("fees window = %d, want 144", cfg.Fees.Window)
	}
}

func TestLoadMergesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feescope.yaml")
	yml := `
data_dir: /tmp/feescope-test
api:
  port: 9000
chart:
  threshold: 50
  default_ceiling: 250
headers:
  poll_interval: 5s
`
	if err := os.WriteFile(path, []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 9000 || cfg.API.Bind != "127.0.0.1" {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Chart.Threshold != 50 || cfg.Chart.Multiplier != 3 || cfg.Chart.Default != 250 {
		t.Errorf("chart = %+v", cfg.Chart)
	}
	if cfg.Headers.PollInterval != 5*time.Second {
		t.Errorf("poll interval = %v", cfg.Headers.PollInterval)
	}
	if cfg.DBPath() != "/tmp/feescope-test/feescope.db" {
		t.Errorf("DBPath = %s", cfg.DBPath())
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("FEESCOPE_INGEST_TOKEN", "s3cret")
	t.Setenv("FEESCOPE_API_PORT", "9100")

	cfg, err := LoadFromBytes(nil)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if cfg.Fees.IngestToken != "s3cret" {
		t.Errorf("ingest token = %q", cfg.Fees.IngestToken)
	}
	if cfg.API.Port != 9100 {
		t.Errorf("port = %d", cfg.API.Port)
	}
}

func TestLoadFromBytesBadYAML(t *testing.T) {
	if _, err := LoadFromBytes([]byte("api: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLogApply(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	if err := (LogConfig{Level: "debug", Format: "plain"}).Apply(logger, &buf); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if logger.Flags() != log.Lshortfile {
		t.Errorf("flags = %d, want Lshortfile", logger.Flags())
	}

	if err := (LogConfig{Level: "off", Format: "text"}).Apply(logger, &buf); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	logger.Print("dropped")
	if buf.Len() != 0 {
		t.Errorf("level off wrote %q", buf.String())
	}

	if err := DefaultConfig().Log.Apply(logger, &buf); err != nil {
		t.Fatalf("default Apply: %v", err)
	}
	if logger.Flags() != log.LstdFlags {
		t.Errorf("default flags = %d", logger.Flags())
	}
	logger.Print("kept")
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Errorf("default level dropped output: %q", buf.String())
	}

	if err := (LogConfig{Level: "loud"}).Apply(logger, &buf); err == nil {
		t.Error("unknown level accepted")
	}
	if err := (LogConfig{Format: "xml"}).Apply(logger, &buf); err == nil {
		t.Error("unknown format accepted")
	}
}
