package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/fees"
	"gopkg.in/yaml.v3"
)

type APIConfig struct {
	Port int    `yaml:"port"`
	Bind string `yaml:"bind"`
}

type FeesConfig struct {
	Window      int           `yaml:"window"`       // only record blocks this close to the tip
	Retain      int           `yaml:"retain"`       // keep fee sets for this many blocks below the tip
	IngestToken string        `yaml:"ingest_token"` // bearer token for POST /api/fees (empty = open)
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	CacheSize   int           `yaml:"cache_size"`
}

type HeadersConfig struct {
	BHSURL       string        `yaml:"bhs_url"`
	BHSAPIKey    string        `yaml:"bhs_api_key"`
	SyncOnBoot   bool          `yaml:"sync_on_boot"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	Window       int           `yaml:"window"` // headers kept behind the tip
}

// LogConfig sets up the standard logger. Level "info" logs everything,
// "debug" also adds file:line and "off" discards output. Format "text"
// stamps date and time, "plain" leaves stamping to the supervisor.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Apply configures logger to write to w.
func (l LogConfig) Apply(logger *log.Logger, w io.Writer) error {
	var flags int
	switch l.Format {
	case "", "text":
		flags = log.LstdFlags
	case "plain":
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}

	switch l.Level {
	case "", "info":
	case "debug":
		flags |= log.Lshortfile
	case "off":
		w = io.Discard
	default:
		return fmt.Errorf("unknown log level %q", l.Level)
	}

	logger.SetFlags(flags)
	logger.SetOutput(w)
	return nil
}

type Config struct {
	DataDir string           `yaml:"data_dir"`
	API     APIConfig        `yaml:"api"`
	Fees    FeesConfig       `yaml:"fees"`
	Chart   fees.RangePolicy `yaml:"chart"`
	Headers HeadersConfig    `yaml:"headers"`
	Log     LogConfig        `yaml:"log"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".feescope"),
		API: APIConfig{
			Port: 8833,
			Bind: "127.0.0.1",
		},
		Fees: FeesConfig{
			Window:    144, // one day of blocks
			Retain:    1008,
			CacheTTL:  10 * time.Minute,
			CacheSize: 256,
		},
		Chart: fees.DefaultRangePolicy(),
		Headers: HeadersConfig{
			SyncOnBoot:   true,
			PollInterval: 30 * time.Second,
			BatchSize:    500,
			Window:       2016,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file and merges it with defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if len(cfg.DataDir) > 0 && cfg.DataDir[0] == '~' {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, cfg.DataDir[1:])
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromBytes parses YAML config from bytes and merges with defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables on top of config values.
func (c *Config) applyEnv() {
	if v := os.Getenv("FEESCOPE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FEESCOPE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.API.Port = port
		}
	}
	if v := os.Getenv("FEESCOPE_INGEST_TOKEN"); v != "" {
		c.Fees.IngestToken = v
	}
	if v := os.Getenv("FEESCOPE_BHS_URL"); v != "" {
		c.Headers.BHSURL = v
	}
	if v := os.Getenv("FEESCOPE_BHS_API_KEY"); v != "" {
		c.Headers.BHSAPIKey = v
	}
	if v := os.Getenv("FEESCOPE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// DBPath returns the full path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "feescope.db")
}
