package oraclevm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/crypto"
)

var (
	ErrVaultExists  = errors.New("vault already exists")
	ErrOptionExists = errors.New("option already exists")
)

type Option func(*VM)

func WithLiquidationEvaluator(e LiquidationEvaluator) Option {
	return func(vm *VM) {
		vm.liquidations = e
	}
}

// WithPriceResolver lets expiries settle at the anchored price instead of 0.
func WithPriceResolver(r PriceResolver) Option {
	return func(vm *VM) {
		vm.prices = r
	}
}

// VM is the oracle settlement state machine. It is not safe for concurrent
// use; callers serialize access.
type VM struct {
	state        State
	liquidations LiquidationEvaluator
	prices       PriceResolver
}

func New(opts ...Option) *VM {
	vm := &VM{
		state:        newState(),
		liquidations: NoLiquidations{},
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// ProcessBlock anchors priceRoot at height and queues every settlement the
// new block triggers. Conditions that remain unresolved are queued again on
// the next block.
func (vm *VM) ProcessBlock(ctx context.Context, height uint64, priceRoot chainhash.Hash) []Settlement {
	vm.state.BlockHeight = height
	vm.state.PriceRoots[height] = priceRoot

	var triggered []Settlement
	triggered = append(triggered, vm.checkVaultLiquidations(height, priceRoot)...)
	triggered = append(triggered, vm.checkOptionExpiries(height, priceRoot)...)

	vm.state.Pending = append(vm.state.Pending, triggered...)

	if len(triggered) > 0 {
		log.Ctx(ctx).Info().
			Uint64("height", height).
			Str("price_root", crypto.HashHex(priceRoot)).
			Int("triggered", len(triggered)).
			Int("pending", len(vm.state.Pending)).
			Msg("block triggered settlements")
	}

	return triggered
}

func (vm *VM) checkVaultLiquidations(height uint64, priceRoot chainhash.Hash) []Settlement {
	var out []Settlement
	for _, id := range sortedIDs(vm.state.Vaults) {
		price, breached := vm.liquidations.Evaluate(vm.state.Vaults[id], height, priceRoot)
		if !breached {
			continue
		}
		out = append(out, VaultLiquidation{
			VaultID:          id,
			LiquidationPrice: price,
			Timestamp:        height * BlockIntervalSeconds,
		})
	}
	return out
}

func (vm *VM) checkOptionExpiries(height uint64, priceRoot chainhash.Hash) []Settlement {
	now := height * BlockIntervalSeconds

	var settlementPrice uint64
	if vm.prices != nil {
		settlementPrice, _ = vm.prices.PriceAt(priceRoot)
	}

	var out []Settlement
	for _, id := range sortedIDs(vm.state.Options) {
		option := vm.state.Options[id]
		if now < option.ExpiryTime {
			continue
		}
		out = append(out, OptionExpiry{
			OptionID:        id,
			SettlementPrice: settlementPrice,
			ExpiryTime:      option.ExpiryTime,
		})
	}
	return out
}

// ExecuteSettlement removes the settled vault or option and every pending
// entry targeting it. Settling an entity that no longer exists is a no-op.
func (vm *VM) ExecuteSettlement(ctx context.Context, s Settlement) error {
	switch s := s.(type) {
	case VaultLiquidation:
		delete(vm.state.Vaults, s.VaultID)
	case OptionExpiry:
		delete(vm.state.Options, s.OptionID)
	default:
		return fmt.Errorf("unsupported settlement %T", s)
	}

	kept := vm.state.Pending[:0]
	for _, p := range vm.state.Pending {
		if !sameTarget(p, s) {
			kept = append(kept, p)
		}
	}
	// drop references held past the new length
	clear(vm.state.Pending[len(kept):])
	vm.state.Pending = kept

	log.Ctx(ctx).Debug().
		Str("kind", s.Kind().String()).
		Str("id", crypto.HashHex(s.EntityID())).
		Msg("settlement executed")
	return nil
}

// CreateVault opens a vault at the current height with the default
// collateral ratio.
func (vm *VM) CreateVault(id chainhash.Hash, owner string, collateral, debt uint64) error {
	if _, ok := vm.state.Vaults[id]; ok {
		return fmt.Errorf("%w: %s", ErrVaultExists, crypto.HashHex(id))
	}

	vm.state.Vaults[id] = Vault{
		ID:              id,
		Owner:           owner,
		Collateral:      collateral,
		Debt:            debt,
		CollateralRatio: DefaultCollateralRatio,
		CreatedAt:       vm.state.BlockHeight,
	}
	return nil
}

func (vm *VM) CreateOption(id chainhash.Hash, terms OptionTerms) error {
	if _, ok := vm.state.Options[id]; ok {
		return fmt.Errorf("%w: %s", ErrOptionExists, crypto.HashHex(id))
	}
	if terms.Type != Call && terms.Type != Put {
		return fmt.Errorf("invalid option type %s", terms.Type)
	}

	vm.state.Options[id] = OptionContract{
		ID:          id,
		OptionTerms: terms,
	}
	return nil
}

func (vm *VM) State() State {
	return vm.state.clone()
}

func (vm *VM) Pending() []Settlement {
	return append([]Settlement(nil), vm.state.Pending...)
}

func (vm *VM) BlockHeight() uint64 {
	return vm.state.BlockHeight
}

// PriceRoot returns the root anchored at height.
func (vm *VM) PriceRoot(height uint64) (chainhash.Hash, bool) {
	root, ok := vm.state.PriceRoots[height]
	return root, ok
}

func sortedIDs[V any](m map[chainhash.Hash]V) []chainhash.Hash {
	ids := make([]chainhash.Hash, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}
