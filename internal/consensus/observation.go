package consensus

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/oraclevm/oracle-vm/internal/crypto"
)

// Observation is a single exchange price reported by an oracle node.
// Timestamp is asserted by the producer, ReceivedAt is stamped on intake.
// Both are unix seconds.
type Observation struct {
	Price      float64
	Timestamp  int64
	Source     string
	NodeID     string
	ReceivedAt int64

	// optional, see Aggregator.Submit
	PubKey    *btcec.PublicKey
	Signature *ecdsa.Signature
}

// SigningMessage is the canonical byte form a node signs when submitting
// a price. It does not cover ReceivedAt, which the producer cannot know.
func SigningMessage(price float64, timestamp int64, source, nodeID string) []byte {
	var b strings.Builder
	b.WriteString(source)
	b.WriteByte('|')
	b.WriteString(nodeID)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(timestamp, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(price, 'f', -1, 64))
	return []byte(b.String())
}

func (o *Observation) SigningMessage() []byte {
	return SigningMessage(o.Price, o.Timestamp, o.Source, o.NodeID)
}

// Signed reports whether the observation carries a key and a signature.
func (o *Observation) Signed() bool {
	return o.PubKey != nil && o.Signature != nil
}

func (o *Observation) verifySignature() bool {
	return crypto.Verify(o.SigningMessage(), o.Signature, o.PubKey)
}

// Leaf is the merkle leaf committing to this observation.
func (o *Observation) Leaf() chainhash.Hash {
	return crypto.Sha256(o.SigningMessage())
}
