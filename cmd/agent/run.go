package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/lisanmuaddib/wrap-agent/internal/agentconfig"
	agent "github.com/lisanmuaddib/wrap-agent/pkg"
	"github.com/lisanmuaddib/wrap-agent/pkg/actions"
	"github.com/lisanmuaddib/wrap-agent/pkg/db"
	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/lisanmuaddib/wrap-agent/pkg/logging"
	"github.com/lisanmuaddib/wrap-agent/pkg/memory"
	"github.com/lisanmuaddib/wrap-agent/pkg/metrics"
	"github.com/lisanmuaddib/wrap-agent/pkg/wallet"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the wrap/unwrap scheduler until interrupted",
	RunE:  runAgent,
}

func runAgent(cmd *cobra.Command, _ []string) error {
	cfg, err := agentconfig.Load(envFiles...)
	if err != nil {
		return err
	}

	log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log.WithFields(cfg.Fields()).Info("Configuration loaded")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client, err := wallet.NewClient(ctx, log, cfg.Network, cfg.PrivateKey)
	if err != nil {
		return err
	}
	defer client.Close()

	blockNumber, err := client.BlockNumber(ctx)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"block":    blockNumber,
		"chain_id": client.ChainID().String(),
		"address":  client.Address().Hex(),
	}).Info("Connected to network")

	if balance, err := client.NativeBalance(ctx); err != nil {
		log.WithError(err).Warn("Could not read native balance")
	} else {
		log.WithField("balance", fees.WeiToEther(balance).String()).Info("Native balance")
	}

	var recorder actions.OperationRecorder
	if cfg.Database.Enabled() {
		gormDB, err := db.SetupDatabase(log, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close(gormDB)

		store, err := memory.NewOperationStore(log, gormDB)
		if err != nil {
			return err
		}
		recorder = store
	}

	configured, err := agentconfig.ConfigureActions(agentconfig.ActionConfig{
		Config:        cfg,
		Client:        client,
		Logger:        log,
		Recorder:      recorder,
		WalletAddress: client.Address().Hex(),
	})
	if err != nil {
		return err
	}

	// Fee probe, also warms the oracle cache for the first cycle
	if _, err := configured.Oracle.Quote(ctx); err != nil {
		log.WithError(err).Warn("Initial fee estimate failed")
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	a, err := agent.New(agent.Config{Logger: log})
	if err != nil {
		return err
	}
	for _, action := range configured.All() {
		if err := a.RegisterAction(action); err != nil {
			return err
		}
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			log.WithField("signal", sig.String()).Info("Received shutdown signal")
			configured.Scheduler.Stop()
			cancel()
		case <-ctx.Done():
		}
	}()

	err = a.Run(ctx)
	logStatus(log, configured.Scheduler.Status())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Agent shutdown complete")
	return nil
}

func logStatus(log *logrus.Logger, status actions.Status) {
	fields := logrus.Fields{
		"running":         status.Running,
		"operation_count": status.OperationCount,
		"wallet":          status.WalletAddress,
		"contract":        status.ContractAddress,
	}
	if status.LastFeeQuote != nil {
		fields["tier"] = status.LastFeeQuote.Tier
		fields["priority_fee_gwei"] = status.LastFeeQuote.PriorityFeeGwei()
		fields["max_fee_gwei"] = status.LastFeeQuote.MaxFeeGwei()
		fields["fee_updated"] = status.LastFeeUpdate
	}
	log.WithFields(fields).Info("Final status")
}
