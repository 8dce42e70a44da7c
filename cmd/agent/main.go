package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// envFiles are loaded into the environment before configuration is read
var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "wrap-agent",
	Short: "Wraps and unwraps a chain's native asset on a randomized schedule",
	Long: `wrap-agent repeatedly deposits the native asset into its wrapped ERC20 contract
and withdraws it again, at random amounts and intervals, pricing every
transaction with a cached multi-tier fee estimate.

Running without a subcommand is the same as "wrap-agent run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAgent,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env)")
	rootCmd.AddCommand(runCmd, checkCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("wrap-agent failed")
		os.Exit(1)
	}
}
