// Package config provides configuration types and utilities for the receiver.
//
// This package defines the configuration structures used by recvd:
//   - ReceiverConfiguration: capture listener settings like bind address,
//     port, relay aliases, timeouts, and hidden paths
//   - AdminConfig: the read-only admin API
//   - LoggingConfig: structured logging level, format, and optional log file
//
// File-based Configuration:
//
// Settings can be loaded from YAML or JSON files:
//
//	cfg, err := config.LoadFromFile("recvd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Fields absent from the file keep their defaults, so a partial file only
// overrides what it names:
//
//	port: 8080
//	verbose: true
//	admin:
//	  enabled: true
//
// Validation happens on load. Relay aliases must be unique and must not
// overlap between the query set and the target set, hidden paths must be
// valid doublestar globs, and the capture filter must compile.
package config
