package services

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
	"github.com/oraclevm/oracle-vm/internal/prover"
)

func (s *Service) CreateVault(ctx context.Context, id chainhash.Hash, owner string, collateral, debt uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vm.CreateVault(id, owner, collateral, debt); err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Str("vault_id", crypto.HashHex(id)).
		Str("owner", owner).
		Uint64("collateral", collateral).
		Uint64("debt", debt).
		Msg("vault created")
	return nil
}

func (s *Service) CreateOption(ctx context.Context, id chainhash.Hash, terms oraclevm.OptionTerms) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vm.CreateOption(id, terms); err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Str("option_id", crypto.HashHex(id)).
		Stringer("type", terms.Type).
		Uint64("expiry_time", terms.ExpiryTime).
		Msg("option created")
	return nil
}

// VMState returns a copy of the state machine state.
func (s *Service) VMState() oraclevm.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.vm.State()
}

// ProveSettlement proves an arbitrary settlement without touching the
// state machine.
func (s *Service) ProveSettlement(
	ctx context.Context, settlement oraclevm.Settlement, priceData, marketState []byte,
) (*prover.SettlementProof, error) {
	return s.prover.GenerateSettlementProof(ctx, settlement, priceData, marketState)
}
