package crypto

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HashHex encodes h in byte order. chainhash.Hash.String reverses the
// bytes, which is only correct for block and transaction ids.
func HashHex(h chainhash.Hash) string {
	return hex.EncodeToString(h[:])
}

// ParseHash decodes a 32-byte hash written by HashHex.
func ParseHash(s string) (chainhash.Hash, error) {
	var h chainhash.Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(raw) != chainhash.HashSize {
		return h, fmt.Errorf("expected %d bytes, got %d", chainhash.HashSize, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
