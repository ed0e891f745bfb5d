package model

import (
	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/crypto"
)

const PriceRootCollection = "price_roots"

type ContributionDocument struct {
	Source     string  `bson:"source"`
	NodeID     string  `bson:"node_id"`
	Price      float64 `bson:"price"`
	Timestamp  int64   `bson:"timestamp"`
	ReceivedAt int64   `bson:"received_at"`
}

// PriceRootDocument is the price root anchored at a bitcoin height.
type PriceRootDocument struct {
	Height        uint64                 `bson:"_id"`
	BlockHash     string                 `bson:"block_hash"`
	Root          string                 `bson:"root"`
	Price         float64                `bson:"price"`
	PriceCents    uint64                 `bson:"price_cents"`
	Contributions []ContributionDocument `bson:"contributions"`
	ComputedAt    int64                  `bson:"computed_at"`
}

func NewContributionDocuments(contributions []consensus.Contribution) []ContributionDocument {
	docs := make([]ContributionDocument, len(contributions))
	for i, c := range contributions {
		docs[i] = ContributionDocument{
			Source:     c.Source,
			NodeID:     c.NodeID,
			Price:      c.Price,
			Timestamp:  c.Timestamp,
			ReceivedAt: c.ReceivedAt,
		}
	}
	return docs
}

func NewPriceRootDocument(
	height uint64, blockHash string, price *consensus.AggregatedPrice, priceCents uint64,
) *PriceRootDocument {
	return &PriceRootDocument{
		Height:        height,
		BlockHash:     blockHash,
		Root:          crypto.HashHex(price.PriceRoot()),
		Price:         price.Price,
		PriceCents:    priceCents,
		Contributions: NewContributionDocuments(price.Contributions),
		ComputedAt:    price.ComputedAt,
	}
}
