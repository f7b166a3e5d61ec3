// Package kernelconfig loads the small set of tunables an embedder needs
// to stand up a kernel: the grid cell size, checkpoint cadence, and the
// world's initial seed and data directory. Values can come from the
// environment via typed struct tags or from a YAML file validated against
// a JSON Schema before use.
package kernelconfig

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables for one world.
type Config struct {
	WorldID string `env:"WORLD_ID" yaml:"world_id"`
	DataDir string `env:"DATA_DIR" yaml:"data_dir"`

	Seed            uint64  `env:"SEED" yaml:"seed"`
	GridCellSize    float64 `env:"GRID_CELL_SIZE" yaml:"grid_cell_size"`
	CheckpointEvery uint64  `env:"CHECKPOINT_EVERY_TICKS" yaml:"checkpoint_every_ticks"`
	EnforceStepSeed bool    `env:"ENFORCE_STEP_SEED" yaml:"enforce_step_seed"`
}

// applyDefaults fills unset fields with the kernel's defaults; the zero
// value of each field means unset.
func (c *Config) applyDefaults() {
	if c.WorldID == "" {
		c.WorldID = "world_1"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.GridCellSize <= 0 {
		c.GridCellSize = 16
	}
	if c.CheckpointEvery == 0 {
		c.CheckpointEvery = 3000
	}
}

// FromEnv loads a Config from environment variables via typed struct tags,
// then applies defaults.
func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

// FromYAMLFile loads a Config from a YAML file, validates the decoded
// document against the JSON Schema at schemaPath (empty skips validation),
// and applies defaults.
func FromYAMLFile(path, schemaPath string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("parse yaml %s: %w", path, err)
	}

	if schemaPath != "" {
		schema, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return Config{}, fmt.Errorf("compile schema %s: %w", schemaPath, err)
		}
		if err := schema.Validate(doc); err != nil {
			return Config{}, fmt.Errorf("validate config %s: %w", path, err)
		}
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	c.applyDefaults()
	return c, nil
}
