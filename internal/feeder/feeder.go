package feeder

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/oraclevm/oracle-vm/internal/clients/exchange"
	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/types"
)

var ErrNoPrices = errors.New("no exchange returned a price")

type Submitter interface {
	SubmitPrice(ctx context.Context, req *types.SubmitPriceRequest) (*types.SubmitPriceResponse, error)
}

// NewNodeID returns a random oracle node id.
func NewNodeID() string {
	return "oracle-node-" + uuid.New().String()[:8]
}

// Feeder fetches BTC/USD from every configured exchange and submits each
// quote to the aggregator as this node.
type Feeder struct {
	nodeID    string
	exchanges []exchange.Client
	submitter Submitter
	key       *btcec.PrivateKey
	pubKeyHex string
}

// New builds a feeder. key may be nil, in which case submissions are
// unsigned.
func New(nodeID string, exchanges []exchange.Client, submitter Submitter, key *btcec.PrivateKey) *Feeder {
	f := &Feeder{
		nodeID:    nodeID,
		exchanges: exchanges,
		submitter: submitter,
		key:       key,
	}
	if key != nil {
		f.pubKeyHex = hex.EncodeToString(key.PubKey().SerializeCompressed())
	}
	return f
}

func (f *Feeder) NodeID() string {
	return f.nodeID
}

// Collect runs one round. Exchanges are queried concurrently; a failing
// exchange or a rejected submission is logged and does not stop the round.
// It fails only when no exchange produced a price.
func (f *Feeder) Collect(ctx context.Context) error {
	var (
		mu     sync.Mutex
		quotes []*exchange.Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, ex := range f.exchanges {
		g.Go(func() error {
			q, err := ex.FetchPrice(gctx)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("exchange", ex.Name()).Msg("failed to fetch price")
				return nil
			}
			mu.Lock()
			quotes = append(quotes, q)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(quotes) == 0 {
		return ErrNoPrices
	}

	var submitted int
	for _, q := range quotes {
		if err := f.submit(ctx, q); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("exchange", q.Source).Msg("failed to submit price")
			continue
		}
		submitted++
	}
	if submitted == 0 {
		return fmt.Errorf("none of %d prices were submitted", len(quotes))
	}
	return nil
}

func (f *Feeder) submit(ctx context.Context, q *exchange.Quote) error {
	req := &types.SubmitPriceRequest{
		Price:     q.Price,
		Timestamp: q.Timestamp,
		Source:    q.Source,
		NodeID:    f.nodeID,
	}
	if f.key != nil {
		msg := consensus.SigningMessage(req.Price, req.Timestamp, req.Source, req.NodeID)
		req.PubKey = f.pubKeyHex
		req.Signature = hex.EncodeToString(crypto.Sign(msg, f.key).Serialize())
	}

	resp, err := f.submitter.SubmitPrice(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("aggregator rejected %s price: %s", q.Source, resp.Message)
	}

	event := log.Ctx(ctx).Info().
		Str("exchange", q.Source).
		Float64("price", q.Price)
	if resp.AggregatedPrice != nil {
		event = event.Float64("aggregated_price", *resp.AggregatedPrice)
	}
	event.Msg("price submitted")
	return nil
}
