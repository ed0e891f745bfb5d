package oraclevm

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// BlockIntervalSeconds converts a block height into an estimated wall
	// clock time.
	BlockIntervalSeconds = 600
	// DefaultCollateralRatio is 150% in basis points.
	DefaultCollateralRatio = 15_000
)

// Vault amounts are in base units: collateral in satoshis, debt in cents.
type Vault struct {
	ID              chainhash.Hash
	Owner           string
	Collateral      uint64
	Debt            uint64
	CollateralRatio uint64 // basis points
	CreatedAt       uint64 // block height
}

type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(s) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option type %q", s)
	}
}

// OptionTerms are the fields supplied when writing an option.
type OptionTerms struct {
	Writer      string
	Type        OptionType
	StrikePrice uint64 // cents
	ExpiryTime  uint64 // unix seconds
	Collateral  uint64
	Premium     uint64
}

type OptionContract struct {
	ID chainhash.Hash
	OptionTerms
	// Holder is empty until the option is bought.
	Holder string
}

// State is the full state machine state. Values returned to callers are
// deep copies.
type State struct {
	BlockHeight uint64
	PriceRoots  map[uint64]chainhash.Hash
	Vaults      map[chainhash.Hash]Vault
	Options     map[chainhash.Hash]OptionContract
	Pending     []Settlement
}

func newState() State {
	return State{
		PriceRoots: make(map[uint64]chainhash.Hash),
		Vaults:     make(map[chainhash.Hash]Vault),
		Options:    make(map[chainhash.Hash]OptionContract),
	}
}

func (s *State) clone() State {
	out := State{
		BlockHeight: s.BlockHeight,
		PriceRoots:  make(map[uint64]chainhash.Hash, len(s.PriceRoots)),
		Vaults:      make(map[chainhash.Hash]Vault, len(s.Vaults)),
		Options:     make(map[chainhash.Hash]OptionContract, len(s.Options)),
		Pending:     append([]Settlement(nil), s.Pending...),
	}
	for h, root := range s.PriceRoots {
		out.PriceRoots[h] = root
	}
	for id, v := range s.Vaults {
		out.Vaults[id] = v
	}
	for id, o := range s.Options {
		out.Options[id] = o
	}
	return out
}
