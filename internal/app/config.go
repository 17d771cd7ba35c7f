package app

import (
	"errors"
	"fmt"
)

// ExecutionIDAuto asks the app to generate a random execution id.
const ExecutionIDAuto = "auto"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath string   // AFCL document, YAML or JSON
	ConfigPaths  []string // engine HCL files or directories
	InputPath    string   // JSON object file
	InputJSON    string   // inline JSON object, wins over InputPath
	OutputPath   string   // result file; empty writes to the app output

	// ExecutionID enables invocation events. ExecutionIDAuto generates one.
	ExecutionID string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// MaxBranches overrides engine.max_concurrent_branches when positive.
	MaxBranches int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.MaxBranches < 0 {
		return nil, fmt.Errorf("max branches must not be negative, got %d", cfg.MaxBranches)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
