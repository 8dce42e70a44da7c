package agentconfig_test

import (
	"context"
	"errors"
	"math/big"

	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/lisanmuaddib/wrap-agent/pkg/wallet"
)

// stubChain has no fee data of its own beyond the latest base fee.
type stubChain struct {
	baseFee *big.Int
}

func (s *stubChain) FeeParameters(context.Context) (fees.Parameters, error) {
	return fees.Parameters{}, errors.New("eth_feeHistory not supported")
}

func (s *stubChain) LatestBaseFee(context.Context) (*big.Int, error) {
	return s.baseFee, nil
}

func (s *stubChain) SubmitWrap(context.Context, *big.Int, fees.Quote) (*wallet.TransactionStatus, error) {
	return nil, errors.New("not implemented")
}

func (s *stubChain) SubmitUnwrap(context.Context, *big.Int, fees.Quote) (*wallet.TransactionStatus, error) {
	return nil, errors.New("not implemented")
}

func (s *stubChain) WrappedBalance(context.Context) (*big.Int, error) {
	return nil, errors.New("not implemented")
}
