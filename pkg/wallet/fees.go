package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/sirupsen/logrus"
)

// defaultPriorityFee is used as the tip when the node has a base fee but does not
// answer eth_maxPriorityFeePerGas
var defaultPriorityFee = big.NewInt(1000000000) // 1 gwei

// FeeParameters reads the network's current fee data: the latest base fee, the
// suggested tip, and the legacy gas price. On EIP-1559 chains the max fee is
// 2 x base fee + tip. Fields the node cannot provide are left nil; an error is
// returned only when nothing usable came back.
func (c *Client) FeeParameters(ctx context.Context) (fees.Parameters, error) {
	log := c.log.WithField("method", "FeeParameters")

	var (
		params fees.Parameters
		errs   []error
	)

	baseFee, err := c.LatestBaseFee(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	if err := c.throttle(ctx); err != nil {
		return fees.Parameters{}, err
	}
	if gasPrice, err := c.backend.SuggestGasPrice(ctx); err != nil {
		errs = append(errs, err)
	} else {
		params.GasPrice = gasPrice
	}

	if baseFee != nil {
		params.LastBaseFee = baseFee

		if err := c.throttle(ctx); err != nil {
			return fees.Parameters{}, err
		}
		tip, err := c.backend.SuggestGasTipCap(ctx)
		if err != nil {
			log.WithError(err).Debug("Tip suggestion unavailable, using default priority fee")
			tip = new(big.Int).Set(defaultPriorityFee)
		}
		params.PriorityFee = tip
		params.MaxFee = new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	}

	if params.GasPrice == nil && params.PriorityFee == nil {
		return fees.Parameters{}, NewWalletError(ErrCodeGasEstimationFailed,
			"no fee data available", errors.Join(errs...), c.config.Type)
	}

	log.WithFields(logrus.Fields{
		"base_fee":     bigString(params.LastBaseFee),
		"priority_fee": bigString(params.PriorityFee),
		"max_fee":      bigString(params.MaxFee),
		"gas_price":    bigString(params.GasPrice),
	}).Debug("Retrieved fee data")

	return params, nil
}

// LatestBaseFee returns the base fee of the latest block, or nil on chains without
// one.
func (c *Client) LatestBaseFee(ctx context.Context) (*big.Int, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	header, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get latest block", err, c.config.Type)
	}
	if header == nil || header.BaseFee == nil {
		return nil, nil
	}
	return new(big.Int).Set(header.BaseFee), nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
