package prover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
)

// WitnessSize is the length of a witness: four concatenated hashes.
const WitnessSize = 4 * chainhash.HashSize

var (
	ErrInputHashMismatch  = errors.New("executor input hash does not match encoded input")
	ErrOutputHashMismatch = errors.New("executor output hash does not match output")
	ErrMalformedWitness   = errors.New("witness does not match proof hashes")
)

type SettlementProof struct {
	Kind              oraclevm.SettlementKind
	SettlementID      chainhash.Hash
	TraceHash         chainhash.Hash
	ProgramCommitment chainhash.Hash
	InputHash         chainhash.Hash
	OutputHash        chainhash.Hash
	Witness           []byte
}

func buildWitness(res *ExecutionResult) []byte {
	witness := make([]byte, 0, WitnessSize)
	witness = append(witness, res.TraceHash[:]...)
	witness = append(witness, res.ProgramCommitment[:]...)
	witness = append(witness, res.InputHash[:]...)
	witness = append(witness, res.OutputHash[:]...)
	return witness
}

// VerifyWitness checks the witness is trace | program | input | output.
func (p *SettlementProof) VerifyWitness() error {
	expected := buildWitness(&ExecutionResult{
		TraceHash:         p.TraceHash,
		ProgramCommitment: p.ProgramCommitment,
		InputHash:         p.InputHash,
		OutputHash:        p.OutputHash,
	})
	if !bytes.Equal(expected, p.Witness) {
		return ErrMalformedWitness
	}
	return nil
}

type Prover struct {
	executor Executor
}

func NewProver(executor Executor) *Prover {
	return &Prover{executor: executor}
}

// New builds a prover with the backend selected by cfg.
func New(cfg *config.ProverConfig) (*Prover, error) {
	switch cfg.Backend {
	case config.ProverBackendHash:
		return NewProver(NewHashExecutor(cfg.ProgramID)), nil
	case config.ProverBackendCommand:
		return NewProver(NewCommandExecutor(cfg.ProgramPath, cfg.Timeout)), nil
	default:
		return nil, fmt.Errorf("unknown prover backend %q", cfg.Backend)
	}
}

// GenerateSettlementProof encodes the settlement, runs it through the
// executor and assembles the proof. Any disagreement between the executor's
// hashes and the data it was given is returned as an error.
func (p *Prover) GenerateSettlementProof(
	ctx context.Context, s oraclevm.Settlement, priceData, marketState []byte,
) (proof *SettlementProof, err error) {
	input, err := EncodeInput(s, priceData, marketState)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settlement input: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.RecordSettlementProofDuration(time.Since(start), s.Kind().String(), err != nil)
	}()

	res, err := p.executor.Execute(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to execute settlement program: %w", err)
	}

	if res.InputHash != crypto.Sha256(input) {
		return nil, ErrInputHashMismatch
	}
	if res.OutputHash != crypto.Sha256(res.Output) {
		return nil, ErrOutputHashMismatch
	}

	proof = &SettlementProof{
		Kind:              s.Kind(),
		SettlementID:      s.EntityID(),
		TraceHash:         res.TraceHash,
		ProgramCommitment: res.ProgramCommitment,
		InputHash:         res.InputHash,
		OutputHash:        res.OutputHash,
		Witness:           buildWitness(res),
	}

	log.Ctx(ctx).Debug().
		Str("kind", proof.Kind.String()).
		Str("settlement_id", crypto.HashHex(proof.SettlementID)).
		Str("trace_hash", crypto.HashHex(proof.TraceHash)).
		Msg("settlement proof generated")

	return proof, nil
}

// Job is one settlement to prove, with the data it settles against.
type Job struct {
	Settlement  oraclevm.Settlement
	PriceData   []byte
	MarketState []byte
}

// ProveAll proves jobs in parallel. Proofs are returned in job order; the
// first failure cancels the remaining work.
func (p *Prover) ProveAll(ctx context.Context, jobs []Job) ([]*SettlementProof, error) {
	for i, job := range jobs {
		if job.Settlement == nil {
			return nil, fmt.Errorf("job %d has no settlement", i)
		}
	}

	proofs := make([]*SettlementProof, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		g.Go(func() error {
			proof, err := p.GenerateSettlementProof(gctx, job.Settlement, job.PriceData, job.MarketState)
			if err != nil {
				return fmt.Errorf("failed to prove %s %s: %w",
					job.Settlement.Kind(), crypto.HashHex(job.Settlement.EntityID()), err)
			}
			proofs[i] = proof
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return proofs, nil
}
