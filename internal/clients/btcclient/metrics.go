package btcclient

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
)

type btcClientWithMetrics struct {
	btc BtcInterface
}

func NewBTCClientWithMetrics(btc BtcInterface) *btcClientWithMetrics {
	return &btcClientWithMetrics{btc: btc}
}

func (b *btcClientWithMetrics) GetTipHeight(ctx context.Context) (uint64, error) {
	height, err := runBtcClientMethodWithMetrics("GetTipHeight", func() (uint64, error) {
		return b.btc.GetTipHeight(ctx)
	})
	if err == nil {
		metrics.RecordBtcTipHeight(height)
	}
	return height, err
}

func (b *btcClientWithMetrics) GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error) {
	return runBtcClientMethodWithMetrics("GetBlockHash", func() (*chainhash.Hash, error) {
		return b.btc.GetBlockHash(ctx, height)
	})
}

func runBtcClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordBTCClientLatency(duration, method, err != nil)
	return v, err
}
