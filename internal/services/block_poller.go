package services

import (
	"context"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/db"
	"github.com/oraclevm/oracle-vm/internal/db/model"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
)

// processNewBlocks anchors a price root at every bitcoin height after the
// last processed one. A fresh deployment starts at the current tip.
func (s *Service) processNewBlocks(ctx context.Context) error {
	tip, err := s.btc.GetTipHeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to get BTC tip height: %w", err)
	}

	last, err := s.db.GetLastProcessedHeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last processed height: %w", err)
	}

	start := last + 1
	if last == 0 {
		start = tip
	}

	for height := start; height <= tip; height++ {
		if err := s.processBlock(ctx, height); err != nil {
			return fmt.Errorf("failed to process block %d: %w", height, err)
		}
		if err := s.db.UpdateLastProcessedHeight(ctx, height); err != nil {
			return fmt.Errorf("failed to update last processed height: %w", err)
		}
	}

	return nil
}

func (s *Service) processBlock(ctx context.Context, height uint64) error {
	root, err := s.anchorPrice(ctx, height)
	if err != nil {
		return err
	}

	s.mu.Lock()
	triggered := s.vm.ProcessBlock(ctx, height, root)
	pending := len(s.vm.Pending())
	s.mu.Unlock()

	metrics.RecordPendingSettlements(pending)

	log.Ctx(ctx).Debug().
		Uint64("height", height).
		Str("price_root", crypto.HashHex(root)).
		Int("triggered", len(triggered)).
		Msg("processed block")
	return nil
}

// anchorPrice aggregates the current observations and stores the resulting
// root for height. Without a consensus price the zero root is anchored.
func (s *Service) anchorPrice(ctx context.Context, height uint64) (chainhash.Hash, error) {
	result := s.aggregator.Aggregate(ctx)
	if !result.OK() {
		log.Ctx(ctx).Warn().
			Uint64("height", height).
			Str("reason", result.Reason.String()).
			Str("detail", result.Detail).
			Msg("no consensus price for block, anchoring empty root")
		return chainhash.Hash{}, nil
	}

	blockHash, err := s.btc.GetBlockHash(ctx, height)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("failed to get block hash: %w", err)
	}

	price := result.Price
	cents := usdToCents(price.Price)
	doc := model.NewPriceRootDocument(height, blockHash.String(), price, cents)

	root := price.PriceRoot()
	if err := s.db.SavePriceRoot(ctx, doc); err != nil {
		if !db.IsDuplicateKeyError(err) {
			return chainhash.Hash{}, fmt.Errorf("failed to save price root: %w", err)
		}
		// anchored before a restart, keep the stored root
		existing, err := s.db.GetPriceRoot(ctx, height)
		if err != nil {
			return chainhash.Hash{}, fmt.Errorf("failed to get price root: %w", err)
		}
		if root, err = crypto.ParseHash(existing.Root); err != nil {
			return chainhash.Hash{}, fmt.Errorf("stored price root at %d is malformed: %w", height, err)
		}
		cents = existing.PriceCents
	}
	s.prices.Record(root, cents)

	if err := s.db.SaveAggregatedPrice(ctx, model.NewAggregatedPriceDocument(price)); err != nil {
		return chainhash.Hash{}, fmt.Errorf("failed to save aggregated price: %w", err)
	}

	log.Ctx(ctx).Info().
		Uint64("height", height).
		Float64("price", price.Price).
		Strs("sources", price.Sources()).
		Str("price_root", crypto.HashHex(root)).
		Msg("anchored price root")
	return root, nil
}

func usdToCents(price float64) uint64 {
	return uint64(math.Round(price * 100))
}
