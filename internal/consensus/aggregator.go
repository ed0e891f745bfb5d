package consensus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
)

const recentObservations = 5

var (
	ErrNonPositivePrice  = errors.New("price must be positive")
	ErrSignatureRequired = errors.New("signature required")
	ErrInvalidSignature  = errors.New("signature verification failed")
)

// Reason explains why no aggregate was published.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonInsufficientConsensus Reason = "insufficient_consensus"
	ReasonTimestampMismatch     Reason = "timestamp_mismatch"
	ReasonPriceAnomaly          Reason = "price_anomaly"
	ReasonUnrealisticPrice      Reason = "unrealistic_price"
)

func (r Reason) String() string {
	return string(r)
}

// Contribution is the observation an exchange contributed to an aggregate.
type Contribution struct {
	Source     string
	NodeID     string
	Price      float64
	Timestamp  int64
	ReceivedAt int64
}

type AggregatedPrice struct {
	Price         float64
	Contributions []Contribution // sorted by source
	ComputedAt    int64
}

// Sources returns the contributing exchanges in Contributions order.
func (p *AggregatedPrice) Sources() []string {
	out := make([]string, len(p.Contributions))
	for i, c := range p.Contributions {
		out[i] = c.Source
	}
	return out
}

// Leaves returns one merkle leaf per contribution, in Contributions order.
func (p *AggregatedPrice) Leaves() []chainhash.Hash {
	leaves := make([]chainhash.Hash, len(p.Contributions))
	for i, c := range p.Contributions {
		leaves[i] = crypto.Sha256(SigningMessage(c.Price, c.Timestamp, c.Source, c.NodeID))
	}
	return leaves
}

// PriceRoot commits to the contributing observations. This is the value
// anchored at a block height.
func (p *AggregatedPrice) PriceRoot() chainhash.Hash {
	return crypto.NewMerkleTree(p.Leaves()).Root()
}

// Result is the outcome of an aggregation attempt. Price is nil exactly
// when Reason is set.
type Result struct {
	Price  *AggregatedPrice
	Reason Reason
	Detail string
}

func (r Result) OK() bool {
	return r.Price != nil
}

// Snapshot is a consistent view of the aggregator taken under one lock.
type Snapshot struct {
	Result     Result
	DataPoints int
	LastUpdate int64
	Recent     []Observation // most recent first
}

type Option func(*Aggregator)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// Aggregator validates submitted observations and derives a consensus
// price from them. Lock order is store before nodes.
type Aggregator struct {
	cfg   *config.AggregatorConfig
	store *observationStore
	nodes *ActiveNodes
	now   func() time.Time
}

func NewAggregator(cfg *config.AggregatorConfig, opts ...Option) *Aggregator {
	a := &Aggregator{
		cfg:   cfg,
		store: newObservationStore(cfg.Capacity),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.nodes = NewActiveNodes(cfg.NodeLivenessWindow, a.now)
	return a
}

// Submit validates and stores an observation, stamping its receipt time,
// and marks the submitting node as active. A rejected observation leaves
// the store untouched.
func (a *Aggregator) Submit(ctx context.Context, obs Observation) error {
	if err := a.validate(obs); err != nil {
		log.Ctx(ctx).Debug().
			Str("source", obs.Source).
			Str("node_id", obs.NodeID).
			Float64("price", obs.Price).
			Err(err).
			Msg("rejected price observation")
		metrics.RecordPriceSubmission(obs.Source, false)
		return err
	}

	obs.ReceivedAt = a.now().Unix()

	a.store.mu.Lock()
	a.store.appendLocked(obs)
	a.store.mu.Unlock()

	a.nodes.Touch(obs.NodeID)
	metrics.RecordPriceSubmission(obs.Source, true)
	return nil
}

func (a *Aggregator) validate(obs Observation) error {
	// NaN fails this comparison too
	if !(obs.Price > 0) || math.IsInf(obs.Price, 0) {
		return ErrNonPositivePrice
	}

	hasKey, hasSig := obs.PubKey != nil, obs.Signature != nil
	if hasKey != hasSig || (a.cfg.RequireSignatures && !obs.Signed()) {
		return ErrSignatureRequired
	}
	if obs.Signed() && !obs.verifySignature() {
		return ErrInvalidSignature
	}

	return nil
}

// TouchNode records contact from a node without submitting a price.
func (a *Aggregator) TouchNode(nodeID string) {
	a.nodes.Touch(nodeID)
}

func (a *Aggregator) ActiveNodeCount() int {
	count := a.nodes.Count()
	metrics.RecordActiveNodes(count)
	return count
}

// Len returns the number of stored observations.
func (a *Aggregator) Len() int {
	return a.store.Len()
}

// Aggregate computes the consensus price over the stored observations.
// It never fails; a withheld price carries its Reason.
func (a *Aggregator) Aggregate(ctx context.Context) Result {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	return a.aggregateLocked(ctx)
}

func (a *Aggregator) Snapshot(ctx context.Context) Snapshot {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	snap := Snapshot{
		Result:     a.aggregateLocked(ctx),
		DataPoints: len(a.store.items),
		Recent:     a.store.recentLocked(recentObservations),
	}
	if n := len(a.store.items); n > 0 {
		snap.LastUpdate = a.store.items[n-1].ReceivedAt
	}
	return snap
}

func (a *Aggregator) aggregateLocked(ctx context.Context) Result {
	now := a.now().Unix()
	freshness := int64(a.cfg.FreshnessWindow / time.Second)

	latest := make(map[string]Observation)
	for _, obs := range a.store.items {
		if now-obs.ReceivedAt > freshness {
			continue
		}
		// ties keep the first stored
		if cur, ok := latest[obs.Source]; !ok || obs.Timestamp > cur.Timestamp {
			latest[obs.Source] = obs
		}
	}

	quorum := a.cfg.Quorum()
	if len(latest) < quorum {
		return a.reject(ctx, ReasonInsufficientConsensus,
			fmt.Sprintf("%d of %d required sources", len(latest), quorum))
	}

	contributions := make([]Contribution, 0, len(latest))
	for _, obs := range latest {
		contributions = append(contributions, Contribution{
			Source:     obs.Source,
			NodeID:     obs.NodeID,
			Price:      obs.Price,
			Timestamp:  obs.Timestamp,
			ReceivedAt: obs.ReceivedAt,
		})
	}
	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].Source < contributions[j].Source
	})

	minTs, maxTs := contributions[0].Timestamp, contributions[0].Timestamp
	var sum float64
	for _, c := range contributions {
		minTs = min(minTs, c.Timestamp)
		maxTs = max(maxTs, c.Timestamp)
		sum += c.Price
	}

	if spread := maxTs - minTs; spread > int64(a.cfg.MaxTimestampSpread/time.Second) {
		return a.reject(ctx, ReasonTimestampMismatch,
			fmt.Sprintf("timestamp spread %ds", spread))
	}

	mean := sum / float64(len(contributions))
	for _, c := range contributions {
		// |p-mean|/mean*100 > max in product form; exactly max passes
		if math.Abs(c.Price-mean)*100 > a.cfg.MaxDeviationPercent*mean {
			return a.reject(ctx, ReasonPriceAnomaly,
				fmt.Sprintf("%s price %.2f deviates from mean %.2f", c.Source, c.Price, mean))
		}
	}

	if mean < a.cfg.MinPrice || mean > a.cfg.MaxPrice {
		return a.reject(ctx, ReasonUnrealisticPrice,
			fmt.Sprintf("mean %.2f outside [%.0f, %.0f]", mean, a.cfg.MinPrice, a.cfg.MaxPrice))
	}

	metrics.RecordAggregatedPrice(mean)
	return Result{
		Price: &AggregatedPrice{
			Price:         mean,
			Contributions: contributions,
			ComputedAt:    now,
		},
	}
}

func (a *Aggregator) reject(ctx context.Context, reason Reason, detail string) Result {
	log.Ctx(ctx).Warn().
		Str("reason", reason.String()).
		Str("detail", detail).
		Msg("aggregate price withheld")
	metrics.RecordAggregationRejection(reason.String())

	return Result{Reason: reason, Detail: detail}
}
