package utils

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-conway/model"
)

// Config holds the configuration for the game
type Config struct {
	Size              int            `json:"size"`
	FillMode          model.FillMode `json:"fill_mode"`
	Density           float64        `json:"density"`
	TargetCount       int            `json:"target_count"`
	MaxGeneration     int            `json:"max_generation"`
	FrameRate         time.Duration  `json:"frame_rate"`
	Workers           int            `json:"workers"`
	UseConvolution    bool           `json:"use_convolution"`
	UseMemoryPool     bool           `json:"use_memory_pool"`
	StagnationHistory int            `json:"stagnation_history"`
	AutoPause         bool           `json:"auto_pause"`
	Seed              uint64         `json:"seed"` // 0 picks a random seed
	DBPath            string         `json:"db_path"`
	ExportDir         string         `json:"export_dir"`
	ExportScale       int            `json:"export_scale"`
	LogPath           string         `json:"log_path"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Size:              50,
		FillMode:          model.FillDensity,
		Density:           0.25,
		TargetCount:       100,
		MaxGeneration:     100,
		FrameRate:         150 * time.Millisecond,
		Workers:           1,
		UseConvolution:    false,
		UseMemoryPool:     true,
		StagnationHistory: 5,
		AutoPause:         true,
		DBPath:            "conway.db",
		ExportDir:         ".",
		ExportScale:       10,
	}
}

// LoadConfig loads configuration from JSON file
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	return config, nil
}

// Bind attaches the configuration to the provided FlagSet so flags override
// values loaded from file.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Size, "size", c.Size, "grid side length")
	fs.Func("fill", "fill mode: density or fixed_count", func(s string) error {
		c.FillMode = model.FillMode(s)
		return nil
	})
	fs.Float64Var(&c.Density, "density", c.Density, "living probability for density fill")
	fs.IntVar(&c.TargetCount, "cells", c.TargetCount, "living cells for fixed_count fill")
	fs.IntVar(&c.MaxGeneration, "generations", c.MaxGeneration, "last generation of a run")
	fs.DurationVar(&c.FrameRate, "frame", c.FrameRate, "interval between generations while playing")
	fs.IntVar(&c.Workers, "workers", c.Workers, "row bands computed concurrently per step")
	fs.BoolVar(&c.UseConvolution, "fft", c.UseConvolution, "count neighbors by FFT convolution")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed, 0 for a random one")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite file holding saves")
	fs.StringVar(&c.ExportDir, "export-dir", c.ExportDir, "directory for exported miniatures")
	fs.IntVar(&c.ExportScale, "export-scale", c.ExportScale, "pixels per cell in exported miniatures")
	fs.StringVar(&c.LogPath, "log", c.LogPath, "log file")
}

// Validate rejects values the engine cannot run with
func (c Config) Validate() error {
	switch {
	case c.Size < 1:
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] size %d must be at least 1", c.Size)
	case !c.FillMode.Valid():
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] unknown fill mode %q", c.FillMode)
	case !(c.Density > 0 && c.Density < 1):
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] density %v outside (0,1)", c.Density)
	case c.TargetCount < 1:
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] target count %d must be at least 1", c.TargetCount)
	case c.FillMode == model.FillFixedCount && c.TargetCount > c.Size*c.Size:
		return errors.Wrapf(model.ErrInvalidConfiguration,
			"[Validate] target count %d outside [1,%d]", c.TargetCount, c.Size*c.Size)
	case c.MaxGeneration < model.StartGeneration:
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] max generation %d", c.MaxGeneration)
	case c.FrameRate <= 0:
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] frame rate %v must be positive", c.FrameRate)
	case c.Workers < 1:
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] workers %d must be at least 1", c.Workers)
	case c.ExportScale < 1:
		return errors.Wrapf(model.ErrInvalidConfiguration, "[Validate] export scale %d must be at least 1", c.ExportScale)
	}
	return nil
}

// EngineOptions translates the configuration into engine options
func (c Config) EngineOptions() []model.Option {
	opts := []model.Option{
		model.WithWorkers(c.Workers),
		model.WithHistory(c.StagnationHistory),
	}
	if c.Seed != 0 {
		opts = append(opts, model.WithSeed(c.Seed))
	}
	if c.UseMemoryPool {
		opts = append(opts, model.WithPool(model.NewGridPool()))
	}
	if c.UseConvolution {
		opts = append(opts, model.WithConvolution())
	}
	return opts
}
