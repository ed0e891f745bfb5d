package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	ErrMalformedPublicKey = errors.New("malformed public key")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrMalformedSecretKey = errors.New("malformed secret key")
)

// Sha256 returns the single SHA-256 digest of data.
func Sha256(data []byte) chainhash.Hash {
	return chainhash.HashH(data)
}

func GenerateKeyPair() (*btcec.PrivateKey, *btcec.PublicKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return priv, priv.PubKey(), nil
}

// Sign produces an ECDSA signature over SHA-256(message).
func Sign(message []byte, key *btcec.PrivateKey) *ecdsa.Signature {
	digest := chainhash.HashB(message)
	return ecdsa.Sign(key, digest)
}

// Verify reports whether sig is a valid signature of SHA-256(message) by key.
// Malformed inputs must be rejected earlier by the Parse* helpers.
func Verify(message []byte, sig *ecdsa.Signature, key *btcec.PublicKey) bool {
	if sig == nil || key == nil {
		return false
	}
	digest := chainhash.HashB(message)
	return sig.Verify(digest, key)
}

func ParsePublicKey(hexKey string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPublicKey, err)
	}
	key, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPublicKey, err)
	}
	return key, nil
}

// ParseSignature decodes a hex DER encoded signature.
func ParseSignature(hexSig string) (*ecdsa.Signature, error) {
	raw, err := hex.DecodeString(hexSig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	sig, err := ecdsa.ParseDERSignature(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return sig, nil
}

func ParsePrivateKey(hexKey string) (*btcec.PrivateKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil || len(raw) != btcec.PrivKeyBytesLen {
		return nil, ErrMalformedSecretKey
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return priv, nil
}

// KeyID is the hex Hash160 of the compressed public key, used to label
// signing nodes in logs and storage.
func KeyID(key *btcec.PublicKey) string {
	return hex.EncodeToString(btcutil.Hash160(key.SerializeCompressed()))
}
