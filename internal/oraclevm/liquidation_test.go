package oraclevm

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
)

func TestCollateralRatioEvaluator(t *testing.T) {
	root := id(0xee)
	book := NewPriceBook()
	// $60,000.00
	book.Record(root, 6_000_000)
	eval := NewCollateralRatioEvaluator(book)

	// 1 BTC against $40,000 of debt is exactly 150%
	atRatio := Vault{Collateral: SatoshisPerBitcoin, Debt: 4_000_000, CollateralRatio: DefaultCollateralRatio}

	tests := []struct {
		name     string
		vault    Vault
		root     chainhash.Hash
		breached bool
	}{
		{"exactly at ratio", atRatio, root, false},
		{"one cent more debt", Vault{Collateral: SatoshisPerBitcoin, Debt: 4_000_001, CollateralRatio: DefaultCollateralRatio}, root, true},
		{"no debt", Vault{Collateral: 1, Debt: 0, CollateralRatio: DefaultCollateralRatio}, root, false},
		{"unknown root", Vault{Collateral: 1, Debt: 1_000_000, CollateralRatio: DefaultCollateralRatio}, id(0x01), false},
		{"vault specific ratio", Vault{Collateral: SatoshisPerBitcoin, Debt: 4_000_000, CollateralRatio: 20_000}, root, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, breached := eval.Evaluate(tt.vault, 1, tt.root)
			assert.Equal(t, tt.breached, breached)
			if breached {
				assert.Equal(t, uint64(6_000_000), price)
			} else {
				assert.Zero(t, price)
			}
		})
	}
}

func TestNoLiquidations(t *testing.T) {
	_, breached := NoLiquidations{}.Evaluate(Vault{Debt: 1}, 1, id(1))
	assert.False(t, breached)
}

func TestPriceBook(t *testing.T) {
	t.Run("keeps only the most recently recorded roots", func(t *testing.T) {
		book := NewPriceBookWithSize(2)
		book.Record(id(1), 100)
		book.Record(id(2), 200)
		book.Record(id(3), 300)

		assert.Equal(t, 2, book.Len())
		_, ok := book.PriceAt(id(1))
		assert.False(t, ok)
		price, ok := book.PriceAt(id(3))
		assert.True(t, ok)
		assert.Equal(t, uint64(300), price)
	})

	t.Run("recording a root again refreshes it", func(t *testing.T) {
		book := NewPriceBookWithSize(2)
		book.Record(id(1), 100)
		book.Record(id(2), 200)
		book.Record(id(1), 150)
		book.Record(id(3), 300)

		assert.Equal(t, 2, book.Len())
		price, ok := book.PriceAt(id(1))
		assert.True(t, ok)
		assert.Equal(t, uint64(150), price)
		_, ok = book.PriceAt(id(2))
		assert.False(t, ok)
	})

	t.Run("bounded over many blocks", func(t *testing.T) {
		book := NewPriceBook()
		for i := 0; i < 3*DefaultPriceBookSize; i++ {
			book.Record(chainhash.HashH([]byte{byte(i), byte(i >> 8)}), uint64(i))
		}
		assert.Equal(t, DefaultPriceBookSize, book.Len())
	})
}
