package oraclevm

import (
	"math/big"
	"slices"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SatoshisPerBitcoin is the default collateral unit.
const SatoshisPerBitcoin = 100_000_000

// LiquidationEvaluator decides whether a vault breaches its collateral
// ratio under the price committed by priceRoot.
type LiquidationEvaluator interface {
	Evaluate(vault Vault, height uint64, priceRoot chainhash.Hash) (liquidationPrice uint64, breached bool)
}

// NoLiquidations never reports a breach.
type NoLiquidations struct{}

func (NoLiquidations) Evaluate(Vault, uint64, chainhash.Hash) (uint64, bool) {
	return 0, false
}

// PriceResolver maps an anchored price root to the price it commits to,
// in cents.
type PriceResolver interface {
	PriceAt(root chainhash.Hash) (uint64, bool)
}

// DefaultPriceBookSize keeps roughly a day of anchored blocks.
const DefaultPriceBookSize = 144

// PriceBook is an in-memory PriceResolver filled as roots are anchored. It
// remembers the most recently recorded roots only; settlements carry their
// price once triggered, so older roots are never resolved again.
type PriceBook struct {
	mu     sync.RWMutex
	size   int
	prices map[chainhash.Hash]uint64
	// order holds the roots in prices, least recently recorded first
	order []chainhash.Hash
}

func NewPriceBook() *PriceBook {
	return NewPriceBookWithSize(DefaultPriceBookSize)
}

// NewPriceBookWithSize keeps at most size roots. A non-positive size uses
// DefaultPriceBookSize.
func NewPriceBookWithSize(size int) *PriceBook {
	if size <= 0 {
		size = DefaultPriceBookSize
	}
	return &PriceBook{
		size:   size,
		prices: make(map[chainhash.Hash]uint64, size),
		order:  make([]chainhash.Hash, 0, size),
	}
}

// Record stores the price for root, evicting the least recently recorded
// root when the book is full.
func (b *PriceBook) Record(root chainhash.Hash, price uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.prices[root]; ok {
		b.order = slices.DeleteFunc(b.order, func(r chainhash.Hash) bool { return r == root })
	} else if len(b.order) >= b.size {
		delete(b.prices, b.order[0])
		b.order = slices.Delete(b.order, 0, 1)
	}

	b.prices[root] = price
	b.order = append(b.order, root)
}

func (b *PriceBook) PriceAt(root chainhash.Hash) (uint64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	price, ok := b.prices[root]
	return price, ok
}

func (b *PriceBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.prices)
}

// CollateralRatioEvaluator reports a breach when
//
//	collateral * price * 10000 / (debt * CollateralUnit) < vault.CollateralRatio
//
// Vaults without debt, and roots with no known price, never breach.
type CollateralRatioEvaluator struct {
	Prices         PriceResolver
	CollateralUnit uint64
}

func NewCollateralRatioEvaluator(prices PriceResolver) *CollateralRatioEvaluator {
	return &CollateralRatioEvaluator{
		Prices:         prices,
		CollateralUnit: SatoshisPerBitcoin,
	}
}

func (e *CollateralRatioEvaluator) Evaluate(vault Vault, _ uint64, priceRoot chainhash.Hash) (uint64, bool) {
	if vault.Debt == 0 {
		return 0, false
	}
	price, ok := e.Prices.PriceAt(priceRoot)
	if !ok {
		return 0, false
	}

	value := new(big.Int).SetUint64(vault.Collateral)
	value.Mul(value, new(big.Int).SetUint64(price))
	value.Mul(value, big.NewInt(10_000))

	unit := e.CollateralUnit
	if unit == 0 {
		unit = SatoshisPerBitcoin
	}
	denom := new(big.Int).SetUint64(vault.Debt)
	denom.Mul(denom, new(big.Int).SetUint64(unit))

	ratio := value.Quo(value, denom)
	if ratio.Cmp(new(big.Int).SetUint64(vault.CollateralRatio)) < 0 {
		return price, true
	}
	return 0, false
}
