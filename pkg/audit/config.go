package audit

// Level constants define the audit logging levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config defines the configuration for audit logging.
type Config struct {
	// Enabled determines whether audit logging is active.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Level controls the minimum severity of events to log.
	// Valid values: "debug", "info", "warn", "error".
	// Default: "info".
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// OutputFile is the path to the audit log file.
	// If empty and Enabled is true, records are written to stdout.
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`

	// MaxBodyPreviewSize limits the size of body previews in bytes.
	// Default: 1024. Set to 0 to disable body previews.
	MaxBodyPreviewSize int `json:"maxBodyPreviewSize,omitempty" yaml:"maxBodyPreviewSize,omitempty"`

	// IncludeHeaders determines whether to include request/response headers.
	// Default: true.
	IncludeHeaders bool `json:"includeHeaders,omitempty" yaml:"includeHeaders,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:            false,
		Level:              LevelInfo,
		MaxBodyPreviewSize: 1024,
		IncludeHeaders:     true,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, "":
		// Valid levels
	default:
		return &ConfigError{Field: "level", Message: "must be one of: debug, info, warn, error"}
	}

	return nil
}

// ShouldLog returns true if the given level should be logged
// based on the configured minimum level.
func (c *Config) ShouldLog(level string) bool {
	if !c.Enabled {
		return false
	}

	configLevel := c.levelPriority(c.Level)
	eventLevel := c.levelPriority(level)

	return eventLevel >= configLevel
}

// levelPriority returns a numeric priority for a log level.
func (c *Config) levelPriority(level string) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1 // Default to info
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "audit config: " + e.Field + ": " + e.Message
}
