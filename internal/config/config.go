// Package config handles carve configuration loading and management.
package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chazu/carve/pkg/crop"
	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/engine"
	"github.com/chazu/carve/pkg/shape"
)

// Kernels selectable with engine.kernel.
const (
	KernelBSP  = "bsp"
	KernelSDFX = "sdfx"
)

// Config holds all carve settings.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Cutter  CutterConfig  `yaml:"cutter"`
	Crop    CropConfig    `yaml:"crop"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds boolean-engine tolerances and limits.
type EngineConfig struct {
	Kernel          string        `yaml:"kernel"`           // "bsp" or "sdfx"
	SDFCells        int           `yaml:"sdf_cells"`        // marching cubes resolution for sdfx
	Epsilon         float64       `yaml:"epsilon"`          // relative to the bounding-box diagonal
	AbsoluteEpsilon float64       `yaml:"absolute_epsilon"` // overrides Epsilon when positive
	MaxPolygons     int           `yaml:"max_polygons"`
	MaxDepth        int           `yaml:"max_depth"`
	EvalTimeout     time.Duration `yaml:"eval_timeout"` // recipe evaluation limit
}

// CutterConfig holds the default crop cylinder.
type CutterConfig struct {
	Radius    float64         `yaml:"radius"`
	Height    float64         `yaml:"height"`
	Segments  int             `yaml:"segments"`
	Placement shape.Placement `yaml:"placement"`
	Op        string          `yaml:"op"` // intersect keeps the inside, subtract removes it
}

// CropConfig holds interactive crop scheduling.
type CropConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := csg.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			Kernel:      KernelBSP,
			Epsilon:     opts.Epsilon,
			MaxPolygons: opts.MaxPolygons,
			MaxDepth:    opts.MaxDepth,
			EvalTimeout: engine.EvalTimeout,
		},
		Cutter: CutterConfig{
			Radius:   crop.DefaultRadius,
			Height:   crop.DefaultHeight,
			Segments: crop.DefaultSegments,
			Op:       csg.OpIntersect.String(),
		},
		Crop: CropConfig{
			Debounce: 150 * time.Millisecond,
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Engine.Kernel != KernelBSP && c.Engine.Kernel != KernelSDFX:
		return fmt.Errorf("engine.kernel %q, want %s or %s", c.Engine.Kernel, KernelBSP, KernelSDFX)
	case c.Engine.Epsilon < 0:
		return fmt.Errorf("engine.epsilon %g must not be negative", c.Engine.Epsilon)
	case c.Engine.AbsoluteEpsilon < 0:
		return fmt.Errorf("engine.absolute_epsilon %g must not be negative", c.Engine.AbsoluteEpsilon)
	case c.Engine.MaxPolygons < 0:
		return fmt.Errorf("engine.max_polygons %d must not be negative", c.Engine.MaxPolygons)
	case c.Engine.MaxDepth < 0:
		return fmt.Errorf("engine.max_depth %d must not be negative", c.Engine.MaxDepth)
	case c.Cutter.Radius <= 0 || c.Cutter.Height <= 0:
		return fmt.Errorf("cutter radius %g and height %g must be positive", c.Cutter.Radius, c.Cutter.Height)
	case c.Cutter.Segments < shape.MinSegments:
		return fmt.Errorf("cutter.segments %d, want at least %d", c.Cutter.Segments, shape.MinSegments)
	case c.Crop.Debounce < 0 || c.Crop.Timeout < 0:
		return fmt.Errorf("crop durations must not be negative")
	}
	if _, err := csg.ParseOp(c.Cutter.Op); err != nil {
		return fmt.Errorf("cutter.op: %w", err)
	}
	return nil
}

// CSGOptions converts the engine section into boolean options.
func (c *Config) CSGOptions() csg.Options {
	return csg.Options{
		Epsilon:         c.Engine.Epsilon,
		AbsoluteEpsilon: c.Engine.AbsoluteEpsilon,
		MaxPolygons:     c.Engine.MaxPolygons,
		MaxDepth:        c.Engine.MaxDepth,
	}
}

// CropParams returns the configured cutter.
func (c *Config) CropParams() (crop.Params, error) {
	op, err := csg.ParseOp(c.Cutter.Op)
	if err != nil {
		return crop.Params{}, err
	}
	if op == csg.OpUnion {
		return crop.Params{}, fmt.Errorf("cutter.op %q does not crop", c.Cutter.Op)
	}
	return crop.Params{
		Radius:    c.Cutter.Radius,
		Height:    c.Cutter.Height,
		Segments:  c.Cutter.Segments,
		Placement: c.Cutter.Placement,
		Op:        op,
	}, nil
}

// CropOptions returns Cropper options logging through log.
func (c *Config) CropOptions(log *zap.Logger) crop.Options {
	return crop.Options{
		CSG:      c.CSGOptions(),
		Debounce: c.Crop.Debounce,
		Timeout:  c.Crop.Timeout,
		Logger:   log,
	}
}
