package agentconfig

import (
	"fmt"

	"github.com/lisanmuaddib/wrap-agent/pkg/actions"
	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/lisanmuaddib/wrap-agent/pkg/picker"
	"github.com/sirupsen/logrus"
)

// ChainClient is what the actions need from the chain: fee data for the oracle and
// wrap/unwrap submission for the scheduler. *wallet.Client implements it.
type ChainClient interface {
	fees.Provider
	actions.WrapClient
}

type ActionConfig struct {
	Config        *Config
	Client        ChainClient
	Logger        *logrus.Logger
	Recorder      actions.OperationRecorder // optional
	WalletAddress string
	Picker        *picker.Picker // optional, seeded from the clock when nil
}

// ConfiguredActions holds the built actions and the collaborators the CLI reports on
type ConfiguredActions struct {
	Oracle    *fees.Oracle
	Scheduler *actions.WrapScheduler
}

// All returns every action to register with the agent
func (c *ConfiguredActions) All() []actions.Action {
	return []actions.Action{c.Scheduler}
}

// ConfigureActions sets up all agent actions
func ConfigureActions(config ActionConfig) (*ConfiguredActions, error) {
	if config.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Client == nil {
		return nil, fmt.Errorf("chain client is required")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	oracle, err := fees.NewOracle(config.Client, config.Config.Fees, config.Logger)
	if err != nil {
		return nil, err
	}

	options := config.Config.Scheduler
	options.WalletAddress = config.WalletAddress

	scheduler, err := actions.NewWrapScheduler(
		config.Client,
		oracle,
		config.Picker,
		config.Logger,
		config.Recorder,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wrap scheduler: %w", err)
	}

	return &ConfiguredActions{
		Oracle:    oracle,
		Scheduler: scheduler,
	}, nil
}
