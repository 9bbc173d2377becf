// Package config reads ralph-ra defaults from the environment.
package config

import (
	"github.com/xyproto/env/v2"
)

// Environment variable names
const (
	EnvRegisters = "RALPH_RA_REGISTERS"
	EnvStrategy  = "RALPH_RA_STRATEGY"
	EnvCoalesce  = "RALPH_RA_COALESCE"
	EnvLogLevel  = "RALPH_RA_LOG_LEVEL"
	EnvLogFormat = "RALPH_RA_LOG_FORMAT"
)

// Defaults used when neither the environment nor flags say otherwise
const (
	DefaultRegisters = 16
	DefaultStrategy  = "graph-coloring"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Config holds driver defaults.
type Config struct {
	Registers int
	Strategy  string
	Coalesce  bool
	LogLevel  string
	LogFormat string
}

// FromEnv builds a Config from RALPH_RA_* variables. The environment is
// reloaded on every call, so later changes are always seen.
func FromEnv() Config {
	env.Load()

	coalesce := true
	if env.Has(EnvCoalesce) {
		coalesce = env.Bool(EnvCoalesce)
	}
	return Config{
		Registers: env.Int(EnvRegisters, DefaultRegisters),
		Strategy:  env.Str(EnvStrategy, DefaultStrategy),
		Coalesce:  coalesce,
		LogLevel:  env.Str(EnvLogLevel, DefaultLogLevel),
		LogFormat: env.Str(EnvLogFormat, DefaultLogFormat),
	}
}
