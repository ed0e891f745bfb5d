package testutil

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

const alphaNum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomAlphaNum returns a random alphanumeric string, used for docker
// container names and node ids.
func RandomAlphaNum(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphaNum[int(b)%len(alphaNum)]
	}
	return string(buf), nil
}

// RandomHash returns a random 32-byte vault, option or settlement id.
func RandomHash(t testing.TB) chainhash.Hash {
	t.Helper()
	var h chainhash.Hash
	_, err := rand.Read(h[:])
	require.NoError(t, err)
	return h
}

// RandomNodeID returns an oracle node id shaped like the ones feeders use.
func RandomNodeID(t testing.TB) string {
	t.Helper()
	suffix, err := RandomAlphaNum(8)
	require.NoError(t, err)
	return "oracle-node-" + suffix
}
