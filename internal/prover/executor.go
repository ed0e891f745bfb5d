package prover

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/oraclevm/oracle-vm/internal/crypto"
)

// ExecutionResult is what a settlement program run commits to.
type ExecutionResult struct {
	TraceHash         chainhash.Hash
	ProgramCommitment chainhash.Hash
	InputHash         chainhash.Hash
	OutputHash        chainhash.Hash
	Output            []byte
}

// Executor runs the settlement program over a canonical input encoding.
type Executor interface {
	Execute(ctx context.Context, input []byte) (*ExecutionResult, error)
}

var hashExecutorOutput = []byte("settlement_executed")

// HashExecutor is a deterministic executor that performs no computation:
// the trace is SHA-256(input hash | output hash) and the program commitment
// is SHA-256(program id).
type HashExecutor struct {
	programCommitment chainhash.Hash
}

func NewHashExecutor(programID string) *HashExecutor {
	return &HashExecutor{programCommitment: crypto.Sha256([]byte(programID))}
}

func (e *HashExecutor) Execute(ctx context.Context, input []byte) (*ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputHash := crypto.Sha256(input)
	outputHash := crypto.Sha256(hashExecutorOutput)

	return &ExecutionResult{
		TraceHash:         crypto.Sha256(append(inputHash[:], outputHash[:]...)),
		ProgramCommitment: e.programCommitment,
		InputHash:         inputHash,
		OutputHash:        outputHash,
		Output:            append([]byte(nil), hashExecutorOutput...),
	}, nil
}
