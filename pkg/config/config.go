// Package config provides configuration types and utilities for the receiver.
package config

import (
	"github.com/leelsey/recvd/pkg/audit"
)

// Default ports and limits.
const (
	// DefaultPort is the capture listener port.
	DefaultPort = 80
	// DefaultAdminPort is the admin API port.
	DefaultAdminPort = 7311
	// DefaultRelayTimeout bounds a relay round trip, in seconds.
	DefaultRelayTimeout = 10
	// DefaultMaxBodySize caps how much of a request body is captured, in bytes.
	DefaultMaxBodySize = 1 << 20
	// DefaultDrainTimeout bounds graceful shutdown, in seconds.
	DefaultDrainTimeout = 5
)

// ReceiverConfiguration defines the capture listener runtime settings.
type ReceiverConfiguration struct {
	// BindAddress is the address the capture listener binds to.
	BindAddress string `json:"bindAddress,omitempty" yaml:"bindAddress,omitempty"`
	// Port is the capture listener port (0 = ephemeral).
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
	// Verbose prefixes entry labels with the client origin (ip:port).
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	// ServerName is shown as the title of the HTML log view.
	ServerName string `json:"serverName,omitempty" yaml:"serverName,omitempty"`
	// ViewPath is the path that serves the HTML log view.
	ViewPath string `json:"viewPath,omitempty" yaml:"viewPath,omitempty"`

	// QueryAliases are the query keys whose value is treated as the relay payload.
	QueryAliases []string `json:"queryAliases,omitempty" yaml:"queryAliases,omitempty"`
	// TargetAliases are the query keys whose value names the relay target.
	TargetAliases []string `json:"targetAliases,omitempty" yaml:"targetAliases,omitempty"`
	// RelayTimeout bounds a relay round trip, in seconds (0 = default).
	RelayTimeout int `json:"relayTimeout,omitempty" yaml:"relayTimeout,omitempty"`

	// MaxBodySize is the maximum captured request body size in bytes.
	MaxBodySize int `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	// MaxConnections limits concurrent listener connections (0 = unlimited).
	MaxConnections int `json:"maxConnections,omitempty" yaml:"maxConnections,omitempty"`
	// ReadTimeout is the HTTP read timeout in seconds.
	ReadTimeout int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	// WriteTimeout is the HTTP write timeout in seconds.
	// Must leave room for RelayTimeout since relays answer inline.
	WriteTimeout int `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	// DrainTimeout bounds graceful shutdown, in seconds.
	DrainTimeout int `json:"drainTimeout,omitempty" yaml:"drainTimeout,omitempty"`

	// HiddenPaths are doublestar globs for paths that are captured to the
	// console only and kept out of the HTML log view.
	HiddenPaths []string `json:"hiddenPaths,omitempty" yaml:"hiddenPaths,omitempty"`
	// CaptureFilter is an optional expression; entries it matches are
	// captured to the console only. Variables: method, path, label, query.
	CaptureFilter string `json:"captureFilter,omitempty" yaml:"captureFilter,omitempty"`

	// Admin configures the read-only admin API.
	Admin *AdminConfig `json:"admin,omitempty" yaml:"admin,omitempty"`
	// Audit configures the audit trail.
	Audit *audit.Config `json:"audit,omitempty" yaml:"audit,omitempty"`
	// Logging configures structured logging.
	Logging *LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// AdminConfig defines the admin API settings.
type AdminConfig struct {
	// Enabled starts the admin API alongside the capture listener.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Port is the admin API port.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
}

// LoggingConfig defines structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the output format (text, json).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// File appends JSON log records to the given path in addition to stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultReceiverConfiguration returns a ReceiverConfiguration with sensible defaults.
func DefaultReceiverConfiguration() *ReceiverConfiguration {
	return &ReceiverConfiguration{
		BindAddress:   "0.0.0.0",
		Port:          DefaultPort,
		ServerName:    "receiver",
		ViewPath:      "/logs",
		QueryAliases:  []string{"q", "req"},
		TargetAliases: []string{"p", "rep"},
		RelayTimeout:  DefaultRelayTimeout,
		MaxBodySize:   DefaultMaxBodySize,
		ReadTimeout:   30,
		WriteTimeout:  30,
		DrainTimeout:  DefaultDrainTimeout,
		Admin: &AdminConfig{
			Enabled: false,
			Port:    DefaultAdminPort,
		},
		Logging: &LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
