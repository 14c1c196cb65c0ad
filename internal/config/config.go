package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/qdash/internal/hash"
	"github.com/ogulcanaydogan/qdash/pkg/types"
)

const DefaultPath = "qdash.yaml"

const DefaultDatasetURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/wine-quality/winequality-red.csv"

type Config struct {
	Data      DataConfig      `yaml:"data"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

type DataConfig struct {
	DatasetURL   string        `yaml:"dataset_url"`
	Separator    string        `yaml:"separator"`
	TargetColumn string        `yaml:"target_column"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	TestSize     float64       `yaml:"test_size"`
	Seed         int64         `yaml:"seed"`
	Estimators   int           `yaml:"estimators"`
	MaxDepth     int           `yaml:"max_depth"`
	MinSplit     int           `yaml:"min_samples_split"`
	Decimals     int           `yaml:"decimals"`
	PayloadPath  string        `yaml:"payload_path"`
}

type DashboardConfig struct {
	PayloadPath             string `yaml:"payload_path"`
	TemplatePath            string `yaml:"template_path"`
	OutputPath              string `yaml:"output_path"`
	Placeholder             string `yaml:"placeholder"`
	AllowMissingPlaceholder bool   `yaml:"allow_missing_placeholder"`
}

func Default() Config {
	return Config{
		Data: DataConfig{
			DatasetURL:   DefaultDatasetURL,
			Separator:    ";",
			TargetColumn: "quality",
			FetchTimeout: 60 * time.Second,
			TestSize:     0.3,
			Seed:         42,
			Estimators:   100,
			MinSplit:     2,
			Decimals:     4,
			PayloadPath:  types.DefaultPayloadPath,
		},
		Dashboard: DashboardConfig{
			PayloadPath:  types.DefaultPayloadPath,
			TemplatePath: types.DefaultTemplatePath,
			OutputPath:   types.DefaultOutputPath,
			Placeholder:  types.Placeholder,
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path when given, else DefaultPath when it exists, else the
// defaults.
func Resolve(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if hash.FileExists(DefaultPath) {
		return Load(DefaultPath)
	}
	return Default(), nil
}

func (c Config) Validate() error {
	d := c.Data
	if d.DatasetURL == "" {
		return fmt.Errorf("data.dataset_url is required")
	}
	if len([]rune(d.Separator)) != 1 {
		return fmt.Errorf("data.separator must be a single character, got %q", d.Separator)
	}
	if d.TargetColumn == "" {
		return fmt.Errorf("data.target_column is required")
	}
	if d.TestSize <= 0 || d.TestSize >= 1 {
		return fmt.Errorf("data.test_size must be in (0, 1), got %v", d.TestSize)
	}
	if d.Estimators < 1 {
		return fmt.Errorf("data.estimators must be positive, got %d", d.Estimators)
	}
	if d.MaxDepth < 0 {
		return fmt.Errorf("data.max_depth must not be negative, got %d", d.MaxDepth)
	}
	if d.MinSplit < 2 {
		return fmt.Errorf("data.min_samples_split must be at least 2, got %d", d.MinSplit)
	}
	if d.Decimals < 0 || d.Decimals > 15 {
		return fmt.Errorf("data.decimals must be in [0, 15], got %d", d.Decimals)
	}
	if d.PayloadPath == "" {
		return fmt.Errorf("data.payload_path is required")
	}
	b := c.Dashboard
	if b.PayloadPath == "" || b.TemplatePath == "" || b.OutputPath == "" {
		return fmt.Errorf("dashboard payload_path, template_path and output_path are required")
	}
	if b.Placeholder == "" {
		return fmt.Errorf("dashboard.placeholder must not be empty")
	}
	return nil
}

func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
