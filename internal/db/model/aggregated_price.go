package model

import (
	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/crypto"
)

const AggregatedPriceCollection = "aggregated_price_history"

// AggregatedPriceDocument records every published aggregate, keyed by the
// price root it produced. Repeated aggregation over the same observations
// maps to the same document.
type AggregatedPriceDocument struct {
	Root          string                 `bson:"_id"`
	Price         float64                `bson:"price"`
	Contributions []ContributionDocument `bson:"contributions"`
	ComputedAt    int64                  `bson:"computed_at"`
}

func NewAggregatedPriceDocument(price *consensus.AggregatedPrice) *AggregatedPriceDocument {
	return &AggregatedPriceDocument{
		Root:          crypto.HashHex(price.PriceRoot()),
		Price:         price.Price,
		Contributions: NewContributionDocuments(price.Contributions),
		ComputedAt:    price.ComputedAt,
	}
}
