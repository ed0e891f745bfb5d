package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/db"
	"github.com/oraclevm/oracle-vm/internal/db/model"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
	"github.com/oraclevm/oracle-vm/internal/prover"
	"github.com/oraclevm/oracle-vm/internal/queue"
)

// ErrConflictingProof is returned when a proof with the same id but a
// different input is already stored.
var ErrConflictingProof = errors.New("conflicting settlement proof already stored")

// executePendingSettlements proves a batch of queued settlements, stores
// the proofs and applies them to the state machine. A settlement is only
// executed once its proof is stored.
func (s *Service) executePendingSettlements(ctx context.Context) error {
	jobs, height := s.nextSettlementJobs()
	if len(jobs) == 0 {
		return nil
	}

	proofs, err := s.prover.ProveAll(ctx, jobs)
	if err != nil {
		return fmt.Errorf("failed to prove settlements: %w", err)
	}

	for i, proof := range proofs {
		settlement := jobs[i].Settlement
		doc := model.NewSettlementProofDocument(settlement, proof, height, s.now().Unix())

		stored, err := s.storeSettlementProof(ctx, doc)
		if err != nil {
			return err
		}

		s.mu.Lock()
		err = s.vm.ExecuteSettlement(ctx, settlement)
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to execute settlement %s: %w", doc.ID, err)
		}

		log.Ctx(ctx).Info().
			Str("kind", doc.Kind).
			Str("settlement_id", doc.SettlementID).
			Uint64("price", doc.Price).
			Str("trace_hash", doc.TraceHash).
			Msg("settlement executed")

		if stored && s.publisher != nil {
			if err := s.publisher.PublishSettlementProof(ctx, queue.NewSettlementProofEvent(doc)); err != nil {
				log.Ctx(ctx).Error().Err(err).Str("id", doc.ID).Msg("failed to publish settlement proof")
			}
		}
	}

	s.mu.Lock()
	pending := len(s.vm.Pending())
	s.mu.Unlock()
	metrics.RecordPendingSettlements(pending)

	return nil
}

// storeSettlementProof saves doc and reports whether it was newly stored.
// A proof already stored under the same id is accepted only when it was
// computed over the same input.
func (s *Service) storeSettlementProof(ctx context.Context, doc *model.SettlementProofDocument) (bool, error) {
	err := s.db.SaveSettlementProof(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !db.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to save settlement proof %s: %w", doc.ID, err)
	}

	existing, err := s.db.GetSettlementProof(ctx, doc.ID)
	if err != nil {
		return false, fmt.Errorf("failed to get settlement proof %s: %w", doc.ID, err)
	}
	if existing.InputHash != doc.InputHash {
		return false, fmt.Errorf("%w: %s has input %s, proven input %s",
			ErrConflictingProof, doc.ID, existing.InputHash, doc.InputHash)
	}

	log.Ctx(ctx).Warn().Str("id", doc.ID).Msg("settlement already proven, executing without publishing")
	return false, nil
}

// nextSettlementJobs takes up to MaxSettlementsPerRun pending settlements,
// one per target, together with the data they settle against.
func (s *Service) nextSettlementJobs() ([]prover.Job, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.vm.BlockHeight()
	root, _ := s.vm.PriceRoot(height)
	marketState := make([]byte, 8)
	binary.BigEndian.PutUint64(marketState, height)

	limit := s.cfg.Poller.MaxSettlementsPerRun
	seen := make(map[string]struct{})
	var jobs []prover.Job
	for _, p := range s.vm.Pending() {
		if limit > 0 && len(jobs) >= limit {
			break
		}
		key := settlementKey(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		jobs = append(jobs, prover.Job{
			Settlement:  p,
			PriceData:   append([]byte(nil), root[:]...),
			MarketState: marketState,
		})
	}
	return jobs, height
}

// settlementKey identifies the entity a pending settlement targets.
func settlementKey(s oraclevm.Settlement) string {
	return s.Kind().String() + ":" + crypto.HashHex(s.EntityID())
}
