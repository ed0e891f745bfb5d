package oraclevm

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type SettlementKind string

const (
	KindVaultLiquidation SettlementKind = "vault_liquidation"
	KindOptionExpiry     SettlementKind = "option_expiry"
)

func (k SettlementKind) String() string {
	return string(k)
}

// Settlement is either a VaultLiquidation or an OptionExpiry.
type Settlement interface {
	Kind() SettlementKind
	// EntityID is the vault or option the settlement refers to.
	EntityID() chainhash.Hash
	// Price and Time are the numeric fields in their canonical order.
	Price() uint64
	Time() uint64

	settlement()
}

type VaultLiquidation struct {
	VaultID          chainhash.Hash
	LiquidationPrice uint64
	Timestamp        uint64
}

func (VaultLiquidation) Kind() SettlementKind       { return KindVaultLiquidation }
func (v VaultLiquidation) EntityID() chainhash.Hash { return v.VaultID }
func (v VaultLiquidation) Price() uint64            { return v.LiquidationPrice }
func (v VaultLiquidation) Time() uint64             { return v.Timestamp }
func (VaultLiquidation) settlement()                {}

type OptionExpiry struct {
	OptionID        chainhash.Hash
	SettlementPrice uint64
	ExpiryTime      uint64
}

func (OptionExpiry) Kind() SettlementKind       { return KindOptionExpiry }
func (o OptionExpiry) EntityID() chainhash.Hash { return o.OptionID }
func (o OptionExpiry) Price() uint64            { return o.SettlementPrice }
func (o OptionExpiry) Time() uint64             { return o.ExpiryTime }
func (OptionExpiry) settlement()                {}

// NewSettlement builds a settlement of the given kind from its fields.
func NewSettlement(kind SettlementKind, id chainhash.Hash, price, time uint64) (Settlement, error) {
	switch kind {
	case KindVaultLiquidation:
		return VaultLiquidation{VaultID: id, LiquidationPrice: price, Timestamp: time}, nil
	case KindOptionExpiry:
		return OptionExpiry{OptionID: id, SettlementPrice: price, ExpiryTime: time}, nil
	default:
		return nil, fmt.Errorf("unknown settlement kind %q", kind)
	}
}

func sameTarget(a, b Settlement) bool {
	return a.Kind() == b.Kind() && a.EntityID() == b.EntityID()
}
