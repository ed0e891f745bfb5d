package btcclient

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type BtcInterface interface {
	GetTipHeight(ctx context.Context) (uint64, error)
	GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error)
}
