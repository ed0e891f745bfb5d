package config

import (
	"fmt"
	"time"
)

const (
	ProverBackendHash    = "hash"
	ProverBackendCommand = "command"

	DefaultProgramID     = "settlement_program_v1"
	defaultProverTimeout = 2 * time.Minute
)

// ProverConfig selects the execution backend used for settlement proofs.
// The command backend runs ProgramPath with the canonical input on stdin.
type ProverConfig struct {
	Backend     string        `mapstructure:"backend"`
	ProgramID   string        `mapstructure:"program-id"`
	ProgramPath string        `mapstructure:"program-path"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (cfg *ProverConfig) Validate() error {
	switch cfg.Backend {
	case ProverBackendHash:
		if cfg.ProgramID == "" {
			return fmt.Errorf("program-id is required for the %s backend", ProverBackendHash)
		}
	case ProverBackendCommand:
		if cfg.ProgramPath == "" {
			return fmt.Errorf("program-path is required for the %s backend", ProverBackendCommand)
		}
	default:
		return fmt.Errorf("unknown prover backend %q", cfg.Backend)
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("prover timeout must be positive")
	}

	return nil
}
