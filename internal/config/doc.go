// Package config loads, defaults and validates the rptl configuration.
//
// Sources are applied in order: built-in defaults, an optional YAML file
// (with ${VAR} expansion and .env support), then command line overrides.
package config
