package api

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
	"github.com/oraclevm/oracle-vm/internal/types"
)

// newVMStateResponse lists roots by height and vaults and options by id so
// the response is stable across calls.
func newVMStateResponse(state oraclevm.State) types.VMStateResponse {
	resp := types.VMStateResponse{
		BlockHeight: state.BlockHeight,
		PriceRoots:  make([]types.PriceRoot, 0, len(state.PriceRoots)),
		Vaults:      make([]types.Vault, 0, len(state.Vaults)),
		Options:     make([]types.Option, 0, len(state.Options)),
		Pending:     make([]types.Settlement, 0, len(state.Pending)),
	}

	for height, root := range state.PriceRoots {
		resp.PriceRoots = append(resp.PriceRoots, types.PriceRoot{Height: height, Root: crypto.HashHex(root)})
	}
	sort.Slice(resp.PriceRoots, func(i, j int) bool {
		return resp.PriceRoots[i].Height < resp.PriceRoots[j].Height
	})

	for _, id := range sortedKeys(state.Vaults) {
		v := state.Vaults[id]
		resp.Vaults = append(resp.Vaults, types.Vault{
			ID:              crypto.HashHex(v.ID),
			Owner:           v.Owner,
			Collateral:      v.Collateral,
			Debt:            v.Debt,
			CollateralRatio: v.CollateralRatio,
			CreatedAt:       v.CreatedAt,
		})
	}

	for _, id := range sortedKeys(state.Options) {
		o := state.Options[id]
		resp.Options = append(resp.Options, types.Option{
			ID:          crypto.HashHex(o.ID),
			Writer:      o.Writer,
			Holder:      o.Holder,
			OptionType:  o.Type.String(),
			StrikePrice: o.StrikePrice,
			ExpiryTime:  o.ExpiryTime,
			Collateral:  o.Collateral,
			Premium:     o.Premium,
		})
	}

	// pending keeps queue order
	for _, s := range state.Pending {
		resp.Pending = append(resp.Pending, types.Settlement{
			Kind:  s.Kind().String(),
			ID:    crypto.HashHex(s.EntityID()),
			Price: s.Price(),
			Time:  s.Time(),
		})
	}

	return resp
}

func sortedKeys[V any](m map[chainhash.Hash]V) []chainhash.Hash {
	keys := make([]chainhash.Hash, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}
