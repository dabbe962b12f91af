package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable the tool needs. It is passed by value into
// collaborators; nothing in this package holds mutable global state.
type Config struct {
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	APIBaseURL   string        `yaml:"api_base_url"`
	STAPath      string        `yaml:"sta_path"`
	STAImage     string        `yaml:"sta_image"`
	RunsDir      string        `yaml:"runs_dir"`
	StateDir     string        `yaml:"state_dir"`
	Iterations   int           `yaml:"iterations"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	DefaultLib   string        `yaml:"default_lib"`
}

// FileName is the per-project overlay looked up in the working directory.
const FileName = "stacli.yaml"

func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Model:       "gemini-2.0-flash",
		APIBaseURL:  "https://generativelanguage.googleapis.com/v1beta",
		STAPath:     "sta",
		STAImage:    "openroad/opensta:latest",
		RunsDir:     "sta-runs",
		StateDir:    filepath.Join(home, ".stacli"),
		Iterations:  3,
		RunTimeout:  120 * time.Second,
		HTTPTimeout: 60 * time.Second,
		MaxRetries:  5,
		RetryDelay:  2 * time.Second,
		DefaultLib:  "NangateOpenCellLibrary_typical.lib",
	}
}

// Load builds the effective configuration: defaults, then the stacli.yaml
// overlay if one exists in the working directory, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	path := FileName
	if val := os.Getenv("STACLI_CONFIG"); val != "" {
		path = val
	}
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if val := os.Getenv("STACLI_API_KEY"); val != "" {
		c.APIKey = val
	} else if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		c.APIKey = val
	}
	if val := os.Getenv("STACLI_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("STACLI_API_BASE_URL"); val != "" {
		c.APIBaseURL = val
	}
	if val := os.Getenv("STACLI_STA_PATH"); val != "" {
		c.STAPath = val
	}
	if val := os.Getenv("STACLI_STA_IMAGE"); val != "" {
		c.STAImage = val
	}
	if val := os.Getenv("STACLI_RUNS_DIR"); val != "" {
		c.RunsDir = val
	}
	if val := os.Getenv("STACLI_STATE_DIR"); val != "" {
		c.StateDir = val
	}
	if val := os.Getenv("STACLI_ITERATIONS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.Iterations = n
		}
	}
}

// DBPath is where session history is stored.
func (c *Config) DBPath() string {
	return filepath.Join(c.StateDir, "history.db")
}

// LogDir holds the JSONL run logs.
func (c *Config) LogDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// HasAPIKey reports whether LLM-backed commands can run at all.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}
