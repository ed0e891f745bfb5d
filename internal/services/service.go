package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oraclevm/oracle-vm/internal/clients/btcclient"
	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/consensus"
	"github.com/oraclevm/oracle-vm/internal/db"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
	"github.com/oraclevm/oracle-vm/internal/oraclevm"
	"github.com/oraclevm/oracle-vm/internal/prover"
	"github.com/oraclevm/oracle-vm/internal/queue"
	"github.com/oraclevm/oracle-vm/internal/utils/poller"
)

const Version = "1.0.0"

// SettlementPublisher delivers proven settlements to downstream verifiers.
type SettlementPublisher interface {
	PublishSettlementProof(ctx context.Context, ev *queue.SettlementProofEvent) error
}

type Option func(*Service)

// WithPublisher enables publishing settlement proofs after they are stored.
func WithPublisher(p SettlementPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock overrides the wall clock of the service and its aggregator.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithProver replaces the prover built from config.
func WithProver(p *prover.Prover) Option {
	return func(s *Service) {
		s.prover = p
	}
}

type Service struct {
	cfg        *config.Config
	db         db.DbInterface
	btc        btcclient.BtcInterface
	aggregator *consensus.Aggregator
	prover     *prover.Prover
	publisher  SettlementPublisher
	prices     *oraclevm.PriceBook
	now        func() time.Time

	// mu serializes every access to vm
	mu sync.Mutex
	vm *oraclevm.VM
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	btc btcclient.BtcInterface,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		db:     db,
		btc:    btc,
		prices: oraclevm.NewPriceBook(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.prover == nil {
		p, err := prover.New(&cfg.Prover)
		if err != nil {
			return nil, fmt.Errorf("failed to create prover: %w", err)
		}
		s.prover = p
	}

	s.aggregator = consensus.NewAggregator(&cfg.Aggregator, consensus.WithClock(s.now))
	s.vm = oraclevm.New(
		oraclevm.WithLiquidationEvaluator(oraclevm.NewCollateralRatioEvaluator(s.prices)),
		oraclevm.WithPriceResolver(s.prices),
	)

	return s, nil
}

// StartPollers runs the block poller and the settlement executor until ctx
// is cancelled.
func (s *Service) StartPollers(ctx context.Context) {
	blockPoller := poller.NewPoller(
		"block",
		s.cfg.Poller.BlockPollingInterval,
		metrics.RecordPollerDuration("block", s.processNewBlocks),
	)
	go blockPoller.Start(ctx)

	settlementPoller := poller.NewPoller(
		"settlement",
		s.cfg.Poller.SettlementPollingInterval,
		metrics.RecordPollerDuration("settlement", s.executePendingSettlements),
	)
	go settlementPoller.Start(ctx)
}
