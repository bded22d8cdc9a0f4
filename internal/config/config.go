package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"annbench/internal/adapter"
	pkgerrors "annbench/pkg/errors"

	"gopkg.in/yaml.v3"
)

// FileName is the config file NewConfig looks for.
const FileName = "annbench.yaml"

const (
	Uniform  = "uniform"
	Gaussian = "gaussian"
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	// Count is the number of neighbours requested per query.
	Count int         `yaml:"count"`
	Runs  []RunConfig `yaml:"runs"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatasetConfig describes a synthetic dataset.
type DatasetConfig struct {
	Name         string `yaml:"name"`
	Size         int    `yaml:"size"`
	Queries      int    `yaml:"queries"`
	Dimension    int    `yaml:"dimension"`
	Seed         uint64 `yaml:"seed"`
	Distribution string `yaml:"distribution"`
}

// RunConfig is one adapter definition and the search breadths to sweep.
type RunConfig struct {
	adapter.Definition `yaml:",inline"`
	QueryArgs          []int `yaml:"query_args"`
}

// Default returns a small euclidean HNSW sweep.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: ":8080"},
		Dataset: DatasetConfig{
			Name:         "random-euclidean",
			Size:         10000,
			Queries:      100,
			Dimension:    32,
			Seed:         1,
			Distribution: Uniform,
		},
		Count: 10,
		Runs: []RunConfig{{
			Definition: adapter.Definition{
				Algorithm:  "hnsw",
				Metric:     "euclidean",
				Precision:  "f32",
				Parameters: map[string]any{"M": 16, "efConstruction": 200},
			},
			QueryArgs: []int{10, 20, 40, 80, 120, 200, 400},
		}},
	}
}

// NewConfig loads dir/annbench.yaml, or the defaults when the file is absent.
func NewConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return FromFile(path)
}

// FromFile reads a YAML config. Fields left out keep their defaults, except
// runs, which replace the default sweep when present.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks sizes and constructs (without fitting) every run's adapter.
func (c *Config) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", pkgerrors.ErrInvalidParameter, c.Count)
	}
	d := c.Dataset
	if d.Size <= 0 || d.Queries <= 0 || d.Dimension <= 0 {
		return fmt.Errorf("%w: dataset size, queries and dimension must be positive", pkgerrors.ErrInvalidParameter)
	}
	if d.Distribution != Uniform && d.Distribution != Gaussian {
		return fmt.Errorf("%w: distribution %q", pkgerrors.ErrUnsupportedConfiguration, d.Distribution)
	}
	if len(c.Runs) == 0 {
		return fmt.Errorf("%w: no runs configured", pkgerrors.ErrInvalidParameter)
	}
	for i, run := range c.Runs {
		if _, err := adapter.New(run.Definition); err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
		if len(run.QueryArgs) == 0 {
			return fmt.Errorf("%w: run %d has no query_args", pkgerrors.ErrInvalidParameter, i)
		}
		for _, ef := range run.QueryArgs {
			if ef <= 0 {
				return fmt.Errorf("%w: run %d query arg %d", pkgerrors.ErrInvalidParameter, i, ef)
			}
		}
	}
	return nil
}
