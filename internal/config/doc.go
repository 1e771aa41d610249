// Package config handles configuration loading for taskboardd.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TASKBOARD_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/taskboard/config.yaml
//  3. ~/.config/taskboard/config.yaml
//
// When the home directory cannot be resolved, ./config.yaml is used.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${TASKBOARD_DB_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	heartbeat:
//	  interval: "30s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "/var/lib/taskboard/board.db"
//
// Heartbeat scheduling:
//
//	heartbeat:
//	  interval: "30s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load from a specific path:
//
//	cfg, err := config.Load("/etc/taskboard/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
