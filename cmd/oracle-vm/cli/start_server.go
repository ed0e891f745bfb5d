package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oraclevm/oracle-vm/internal/api"
	"github.com/oraclevm/oracle-vm/internal/clients/btcclient"
	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/db"
	dbmodel "github.com/oraclevm/oracle-vm/internal/db/model"
	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
	"github.com/oraclevm/oracle-vm/internal/observability/tracing"
	"github.com/oraclevm/oracle-vm/internal/queue"
	"github.com/oraclevm/oracle-vm/internal/services"
)

const shutdownTimeout = 10 * time.Second

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the aggregator api, block poller and settlement executor",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}
	if err := setLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up oracle db model")
	}

	// create new db client
	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	defer func() {
		if err := dbClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("error while disconnecting db client")
		}
	}()

	btc, err := btcclient.NewBTCClient(&cfg.BTC)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating btc client")
	}
	defer btc.Shutdown()

	var opts []services.Option
	if cfg.Queue != nil {
		qm, err := queue.NewQueueManager(cfg.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize settlement queue")
		}
		defer qm.Shutdown()
		opts = append(opts, services.WithPublisher(qm))
	}

	service, err := services.NewService(
		cfg,
		db.NewDbWithMetrics(dbClient),
		btcclient.NewBTCClientWithMetrics(btc),
		opts...,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating service")
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	service.StartPollers(ctx)

	server := api.New(&cfg.Server, service)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error while shutting down api server")
		}
	}()

	return server.Start(ctx)
}
