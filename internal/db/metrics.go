package db

import (
	"context"
	"time"

	"github.com/oraclevm/oracle-vm/internal/db/model"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SavePriceRoot(ctx context.Context, doc *model.PriceRootDocument) error {
	return d.run("SavePriceRoot", func() error {
		return d.db.SavePriceRoot(ctx, doc)
	})
}

func (d *DbWithMetrics) GetPriceRoot(ctx context.Context, height uint64) (result *model.PriceRootDocument, err error) {
	//nolint:errcheck
	d.run("GetPriceRoot", func() error {
		result, err = d.db.GetPriceRoot(ctx, height)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveAggregatedPrice(ctx context.Context, doc *model.AggregatedPriceDocument) error {
	return d.run("SaveAggregatedPrice", func() error {
		return d.db.SaveAggregatedPrice(ctx, doc)
	})
}

func (d *DbWithMetrics) GetRecentAggregatedPrices(ctx context.Context, limit int64) (result []model.AggregatedPriceDocument, err error) {
	//nolint:errcheck
	d.run("GetRecentAggregatedPrices", func() error {
		result, err = d.db.GetRecentAggregatedPrices(ctx, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveSettlementProof(ctx context.Context, doc *model.SettlementProofDocument) error {
	return d.run("SaveSettlementProof", func() error {
		return d.db.SaveSettlementProof(ctx, doc)
	})
}

func (d *DbWithMetrics) GetSettlementProof(ctx context.Context, id string) (result *model.SettlementProofDocument, err error) {
	//nolint:errcheck
	d.run("GetSettlementProof", func() error {
		result, err = d.db.GetSettlementProof(ctx, id)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLastProcessedHeight(ctx context.Context) (result uint64, err error) {
	//nolint:errcheck
	d.run("GetLastProcessedHeight", func() error {
		result, err = d.db.GetLastProcessedHeight(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdateLastProcessedHeight(ctx context.Context, height uint64) error {
	return d.run("UpdateLastProcessedHeight", func() error {
		return d.db.UpdateLastProcessedHeight(ctx, height)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and failure status
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	// not found and duplicate key are expected outcomes, not db failures
	failure := err != nil && !IsNotFoundError(err) && !IsDuplicateKeyError(err)
	metrics.RecordDbLatency(duration, method, failure)

	return err
}
