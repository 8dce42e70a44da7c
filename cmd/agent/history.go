package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lisanmuaddib/wrap-agent/pkg/db"
	"github.com/lisanmuaddib/wrap-agent/pkg/db/models"
	"github.com/lisanmuaddib/wrap-agent/pkg/logging"
	"github.com/lisanmuaddib/wrap-agent/pkg/memory"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently journaled operations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// .env is optional here as well
		_ = godotenv.Load(envFiles...)

		cfg := db.ConfigFromEnv()
		if !cfg.Enabled() {
			return fmt.Errorf("history needs a database: set DB_HOST, DB_USER and DB_NAME")
		}

		log, err := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
		if err != nil {
			return err
		}

		if _, err := db.CheckSchema(log, cfg); err != nil {
			return err
		}

		gormDB, err := db.SetupDatabase(log, cfg)
		if err != nil {
			return err
		}
		defer db.Close(gormDB)

		store, err := memory.NewOperationStore(log, gormDB)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ops, err := store.RecentOperations(ctx, historyLimit)
		if err != nil {
			return err
		}
		counts, err := store.CountByStatus(ctx)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"#", "Started", "Kind", "Amount", "Status", "Tier", "Tx Hash", "Wrapped Balance"})
		for _, op := range ops {
			balance := "-"
			if op.WrappedBalance != nil {
				balance = *op.WrappedBalance
			}
			table.Append([]string{
				strconv.FormatInt(op.Sequence, 10),
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Kind,
				op.Amount,
				statusText(op.Status),
				op.FeeTier,
				op.TxHash,
				balance,
			})
		}
		table.Render()

		fmt.Printf("\nsucceeded: %d  failed: %d\n", counts[models.StatusSucceeded], counts[models.StatusFailed])
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", memory.DefaultRecentLimit, "number of operations to show")
}

func statusText(status models.OperationStatus) string {
	if status == models.StatusSucceeded {
		return color.GreenString(string(status))
	}
	return color.RedString(string(status))
}
