package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Zero values leave the loaded
// setting alone.
type Flags struct {
	ConfigPath  string
	LogLevel    string
	LogFile     string
	Kernel      string
	Epsilon     float64
	MaxPolygons int
}

// Register binds the flags to fs, normally a cobra command's persistent
// flag set.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write JSON logs to this file")
	fs.StringVar(&f.Kernel, "kernel", "", "Recipe kernel (bsp or sdfx)")
	fs.Float64Var(&f.Epsilon, "epsilon", 0, "Relative boolean tolerance")
	fs.IntVar(&f.MaxPolygons, "max-polygons", 0, "Polygon budget per boolean operation")
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Kernel != "" {
		cfg.Engine.Kernel = f.Kernel
	}
	if f.Epsilon > 0 {
		cfg.Engine.Epsilon = f.Epsilon
	}
	if f.MaxPolygons > 0 {
		cfg.Engine.MaxPolygons = f.MaxPolygons
	}
}
