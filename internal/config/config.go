// Package config handles importer configuration loading and management.
package config

// Config holds all importer settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds curve selection and mesh generation settings.
type ImportConfig struct {
	CurveStride             int     `yaml:"curve_stride"`  // Process every Nth curve
	VertexStride            int     `yaml:"vertex_stride"` // Keep every Nth point per curve
	Radius                  float32 `yaml:"radius"`
	CircumferenceResolution int     `yaml:"circumference_resolution"`
	LengthResolution        int     `yaml:"length_resolution"`
	CapEnds                 bool    `yaml:"cap_ends"`
	AutoColor               bool    `yaml:"auto_color"`    // Color by direction instead of tag
	CenterCurves            bool    `yaml:"center_curves"` // Move the set to the origin
	Workers                 int     `yaml:"workers"`       // 0 = number of CPUs
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format string `yaml:"format"` // "obj" or "json"
	Path   string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			CurveStride:             1,
			VertexStride:            1,
			Radius:                  0.2,
			CircumferenceResolution: 8,
			LengthResolution:        5,
			CapEnds:                 true,
			AutoColor:               false,
			CenterCurves:            false,
			Workers:                 0,
		},
		Output: OutputConfig{
			Format: "obj",
			Path:   "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
