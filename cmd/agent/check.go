package main

import (
	"os"

	"github.com/lisanmuaddib/wrap-agent/internal/agentconfig"
	"github.com/lisanmuaddib/wrap-agent/pkg/db"
	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/lisanmuaddib/wrap-agent/pkg/logging"
	"github.com/lisanmuaddib/wrap-agent/pkg/wallet"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run read-only checks against the chain and the journal database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := agentconfig.Load(envFiles...)
		if err != nil {
			return err
		}

		log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
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
		}).Info("Connected")

		params, err := client.FeeParameters(ctx)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"priority_fee_gwei": fees.WeiToGwei(params.PriorityFee).String(),
			"max_fee_gwei":      fees.WeiToGwei(params.MaxFee).String(),
			"gas_price_gwei":    fees.WeiToGwei(params.GasPrice).String(),
		}).Info("Fee data")

		baseFee, err := client.LatestBaseFee(ctx)
		if err != nil {
			return err
		}
		log.WithField("base_fee_gwei", fees.WeiToGwei(baseFee).String()).Info("Latest block")

		native, err := client.NativeBalance(ctx)
		if err != nil {
			return err
		}
		wrapped, err := client.WrappedBalance(ctx)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"address": client.Address().Hex(),
			"native":  fees.WeiToEther(native).String(),
			"wrapped": fees.WeiToEther(wrapped).String(),
		}).Info("Balances")

		if cfg.Database.Enabled() {
			version, err := db.CheckSchema(log, cfg.Database)
			if err != nil {
				return err
			}
			if version == 0 {
				log.Warn("No migrations applied yet, run will apply them")
			}
		}

		log.Info("All checks passed")
		return nil
	},
}
