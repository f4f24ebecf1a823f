package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
// It returns the first problem found.
func (c *ReceiverConfiguration) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &ValidationError{
			Field:   "port",
			Message: fmt.Sprintf("must be between 0 and 65535, got %d", c.Port),
		}
	}

	if c.ViewPath != "" {
		if !strings.HasPrefix(c.ViewPath, "/") {
			return &ValidationError{
				Field:   "viewPath",
				Message: fmt.Sprintf("must start with /, got %q", c.ViewPath),
			}
		}
		if c.ViewPath == "/" {
			return &ValidationError{
				Field:   "viewPath",
				Message: "must not be /, the root path answers query echoes",
			}
		}
	}

	if err := validateAliases("queryAliases", c.QueryAliases); err != nil {
		return err
	}
	if err := validateAliases("targetAliases", c.TargetAliases); err != nil {
		return err
	}
	for _, q := range c.QueryAliases {
		for _, p := range c.TargetAliases {
			if q == p {
				return &ValidationError{
					Field:   "targetAliases",
					Message: fmt.Sprintf("alias %q is also a query alias", p),
				}
			}
		}
	}

	if c.RelayTimeout < 0 {
		return &ValidationError{
			Field:   "relayTimeout",
			Message: fmt.Sprintf("must not be negative, got %d", c.RelayTimeout),
		}
	}

	if c.MaxBodySize < 0 {
		return &ValidationError{
			Field:   "maxBodySize",
			Message: fmt.Sprintf("must not be negative, got %d", c.MaxBodySize),
		}
	}
	if c.MaxConnections < 0 {
		return &ValidationError{
			Field:   "maxConnections",
			Message: fmt.Sprintf("must not be negative, got %d", c.MaxConnections),
		}
	}
	if c.ReadTimeout < 0 {
		return &ValidationError{
			Field:   "readTimeout",
			Message: fmt.Sprintf("must not be negative, got %d", c.ReadTimeout),
		}
	}
	if c.WriteTimeout < 0 {
		return &ValidationError{
			Field:   "writeTimeout",
			Message: fmt.Sprintf("must not be negative, got %d", c.WriteTimeout),
		}
	}
	if c.DrainTimeout < 0 {
		return &ValidationError{
			Field:   "drainTimeout",
			Message: fmt.Sprintf("must not be negative, got %d", c.DrainTimeout),
		}
	}

	for _, pattern := range c.HiddenPaths {
		if !doublestar.ValidatePattern(pattern) {
			return &ValidationError{
				Field:   "hiddenPaths",
				Message: fmt.Sprintf("invalid glob pattern %q", pattern),
			}
		}
	}

	if c.CaptureFilter != "" {
		if _, err := expr.Compile(c.CaptureFilter, expr.AsBool()); err != nil {
			return &ValidationError{
				Field:   "captureFilter",
				Message: fmt.Sprintf("does not compile: %v", err),
			}
		}
	}

	if c.Admin != nil {
		if c.Admin.Port < 0 || c.Admin.Port > 65535 {
			return &ValidationError{
				Field:   "admin.port",
				Message: fmt.Sprintf("must be between 0 and 65535, got %d", c.Admin.Port),
			}
		}
		if c.Admin.Enabled && c.Port != 0 && c.Admin.Port == c.Port {
			return &ValidationError{
				Field:   "admin.port",
				Message: fmt.Sprintf("must differ from the capture listener port %d", c.Port),
			}
		}
	}

	if c.Audit != nil {
		if err := c.Audit.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// validateAliases rejects empty and duplicate alias values.
func validateAliases(field string, aliases []string) error {
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		if a == "" {
			return &ValidationError{Field: field, Message: "alias must not be empty"}
		}
		if seen[a] {
			return &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate alias %q", a),
			}
		}
		seen[a] = true
	}
	return nil
}
