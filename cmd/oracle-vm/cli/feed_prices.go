package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oraclevm/oracle-vm/internal/clients/aggregatorclient"
	"github.com/oraclevm/oracle-vm/internal/clients/exchange"
	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/feeder"
	"github.com/oraclevm/oracle-vm/internal/observability/tracing"
	"github.com/oraclevm/oracle-vm/internal/utils/poller"
)

// FeedPricesCmd runs an oracle node: it polls the configured exchanges and
// submits their prices to the aggregator until interrupted.
//
//	./oracle-vm feed-prices --config config.yml
func FeedPricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed-prices",
		Short: "Runs an oracle node feeding exchange prices to the aggregator",
		Args:  cobra.ExactArgs(0),
		RunE:  feedPrices,
	}

	return cmd
}

func feedPrices(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)

	cfg, logLevel, err := config.NewFeeder(GetConfigPath())
	if err != nil {
		return fmt.Errorf("error while loading feeder config: %w", err)
	}
	if err := setLogLevel(logLevel); err != nil {
		return err
	}

	exchanges := make([]exchange.Client, 0, len(cfg.Exchanges))
	for _, name := range cfg.Exchanges {
		ex, err := exchange.New(name, cfg)
		if err != nil {
			return err
		}
		exchanges = append(exchanges, ex)
	}

	var key *btcec.PrivateKey
	if cfg.SigningKey != "" {
		if key, err = crypto.ParsePrivateKey(cfg.SigningKey); err != nil {
			return fmt.Errorf("invalid signing-key: %w", err)
		}
	}

	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = feeder.NewNodeID()
	}

	aggregator := aggregatorclient.NewClient(cfg)
	f := feeder.New(nodeID, exchanges, aggregator, key)

	logger := log.Ctx(ctx).With().Str("node_id", nodeID).Logger()
	ctx = logger.WithContext(ctx)

	if health, err := aggregator.CheckHealth(ctx, nodeID); err != nil {
		logger.Warn().Err(err).Msg("aggregator is not reachable yet")
	} else {
		logger.Info().
			Int("active_nodes", health.ActiveNodeCount).
			Str("version", health.Version).
			Msg("connected to aggregator")
	}

	logger.Info().
		Strs("exchanges", cfg.Exchanges).
		Bool("signed", key != nil).
		Dur("interval", cfg.PollInterval).
		Msg("starting oracle node")

	// first round runs immediately, the poller waits one interval
	if err := f.Collect(ctx); err != nil {
		logger.Error().Err(err).Msg("price collection failed")
	}
	poller.NewPoller("feeder", cfg.PollInterval, f.Collect).Start(ctx)

	return nil
}
