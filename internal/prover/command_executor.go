package prover

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/crypto"
)

// CommandExecutor runs an external emulator. The canonical input is written
// to its stdin and it must print a single JSON object to stdout:
//
//	{"trace_hash": "..", "program_commitment": "..", "input_hash": "..",
//	 "output_hash": "..", "output": ".."}
//
// with every field hex encoded. Hashes are raw bytes, not byte-reversed.
type CommandExecutor struct {
	path    string
	args    []string
	timeout time.Duration
}

func NewCommandExecutor(path string, timeout time.Duration, args ...string) *CommandExecutor {
	return &CommandExecutor{
		path:    path,
		args:    args,
		timeout: timeout,
	}
}

type commandOutput struct {
	TraceHash         string `json:"trace_hash"`
	ProgramCommitment string `json:"program_commitment"`
	InputHash         string `json:"input_hash"`
	OutputHash        string `json:"output_hash"`
	Output            string `json:"output"`
}

func (e *CommandExecutor) Execute(ctx context.Context, input []byte) (*ExecutionResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, e.args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("settlement program %s failed: %w: %s", e.path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	log.Ctx(ctx).Debug().
		Str("program", e.path).
		Dur("took", time.Since(start)).
		Int("input_len", len(input)).
		Msg("settlement program executed")

	var out commandOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode settlement program output: %w", err)
	}

	res := &ExecutionResult{}
	fields := []struct {
		name string
		src  string
		dst  *chainhash.Hash
	}{
		{"trace_hash", out.TraceHash, &res.TraceHash},
		{"program_commitment", out.ProgramCommitment, &res.ProgramCommitment},
		{"input_hash", out.InputHash, &res.InputHash},
		{"output_hash", out.OutputHash, &res.OutputHash},
	}
	for _, f := range fields {
		h, err := crypto.ParseHash(f.src)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = h
	}

	output, err := hex.DecodeString(out.Output)
	if err != nil {
		return nil, fmt.Errorf("invalid output: %w", err)
	}
	res.Output = output

	return res, nil
}
