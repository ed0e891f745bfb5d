package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
)

const priceReceivedMessage = "Price data received"

type SubmitPriceResult struct {
	Success bool
	Message string
	// AggregatedPrice is set only when the submission was stored and a
	// consensus price could be computed afterwards.
	AggregatedPrice *float64
	Timestamp       int64
}

// SubmitPrice stores an observation and reports the resulting aggregate.
// Rejected observations are an unsuccessful result, not an error.
func (s *Service) SubmitPrice(ctx context.Context, obs consensus.Observation) SubmitPriceResult {
	log.Ctx(ctx).Info().
		Float64("price", obs.Price).
		Str("source", obs.Source).
		Str("node_id", obs.NodeID).
		Msg("received price")

	if err := s.aggregator.Submit(ctx, obs); err != nil {
		return SubmitPriceResult{
			Success:   false,
			Message:   err.Error(),
			Timestamp: s.now().Unix(),
		}
	}

	res := SubmitPriceResult{
		Success:   true,
		Message:   priceReceivedMessage,
		Timestamp: s.now().Unix(),
	}
	if agg := s.aggregator.Aggregate(ctx); agg.OK() {
		price := agg.Price.Price
		res.AggregatedPrice = &price
		log.Ctx(ctx).Info().Float64("aggregated_price", price).Msg("aggregated price updated")
	}
	return res
}

// RejectPrice reports a submission that never became an observation, such
// as one carrying a malformed key or signature.
func (s *Service) RejectPrice(ctx context.Context, source, nodeID string, reason error) SubmitPriceResult {
	log.Ctx(ctx).Warn().
		Str("source", source).
		Str("node_id", nodeID).
		Err(reason).
		Msg("rejected price submission")
	metrics.RecordPriceSubmission(source, false)

	return SubmitPriceResult{
		Success:   false,
		Message:   reason.Error(),
		Timestamp: s.now().Unix(),
	}
}

type HealthStatus struct {
	Healthy         bool
	Timestamp       int64
	ActiveNodeCount int
	Version         string
}

// HealthCheck counts the calling node as active.
func (s *Service) HealthCheck(ctx context.Context, nodeID string) HealthStatus {
	if nodeID != "" {
		s.aggregator.TouchNode(nodeID)
	}
	count := s.aggregator.ActiveNodeCount()

	log.Ctx(ctx).Debug().
		Str("node_id", nodeID).
		Int("active_nodes", count).
		Msg("health check")

	return HealthStatus{
		Healthy:         true,
		Timestamp:       s.now().Unix(),
		ActiveNodeCount: count,
		Version:         Version,
	}
}

type AggregatedPriceView struct {
	Success    bool
	Price      float64
	DataPoints int
	LastUpdate int64
	Recent     []consensus.Observation // most recent first
}

// GetAggregatedPrice returns the current consensus price with the stored
// data behind it. When no price can be computed every field is zero.
func (s *Service) GetAggregatedPrice(ctx context.Context) AggregatedPriceView {
	snap := s.aggregator.Snapshot(ctx)
	if !snap.Result.OK() {
		return AggregatedPriceView{Recent: []consensus.Observation{}}
	}

	return AggregatedPriceView{
		Success:    true,
		Price:      snap.Result.Price.Price,
		DataPoints: snap.DataPoints,
		LastUpdate: snap.LastUpdate,
		Recent:     snap.Recent,
	}
}
