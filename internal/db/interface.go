package db

import (
	"context"

	"github.com/oraclevm/oracle-vm/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	// SavePriceRoot stores the root anchored at doc.Height. Anchoring a
	// height twice returns a DuplicateKeyError.
	SavePriceRoot(ctx context.Context, doc *model.PriceRootDocument) error
	GetPriceRoot(ctx context.Context, height uint64) (*model.PriceRootDocument, error)

	// SaveAggregatedPrice is idempotent per price root.
	SaveAggregatedPrice(ctx context.Context, doc *model.AggregatedPriceDocument) error
	GetRecentAggregatedPrices(ctx context.Context, limit int64) ([]model.AggregatedPriceDocument, error)

	SaveSettlementProof(ctx context.Context, doc *model.SettlementProofDocument) error
	GetSettlementProof(ctx context.Context, id string) (*model.SettlementProofDocument, error)

	GetLastProcessedHeight(ctx context.Context) (uint64, error)
	UpdateLastProcessedHeight(ctx context.Context, height uint64) error
}

var (
	_ DbInterface = (*Database)(nil)
	_ DbInterface = (*DbWithMetrics)(nil)
)
