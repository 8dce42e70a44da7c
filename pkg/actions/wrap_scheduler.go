package actions

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lisanmuaddib/wrap-agent/pkg/db/models"
	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/lisanmuaddib/wrap-agent/pkg/metrics"
	"github.com/lisanmuaddib/wrap-agent/pkg/picker"
	"github.com/lisanmuaddib/wrap-agent/pkg/wallet"
	"github.com/sirupsen/logrus"
)

// DefaultRetryBackoff is how long the scheduler pauses after a cycle fails outside
// of operation handling
const DefaultRetryBackoff = 5 * time.Minute

// WrapClient submits wrap and unwrap transactions and reports the wrapped balance.
type WrapClient interface {
	SubmitWrap(ctx context.Context, amount *big.Int, quote fees.Quote) (*wallet.TransactionStatus, error)
	SubmitUnwrap(ctx context.Context, amount *big.Int, quote fees.Quote) (*wallet.TransactionStatus, error)
	WrappedBalance(ctx context.Context) (*big.Int, error)
}

// FeeQuoter prices transactions. *fees.Oracle implements it.
type FeeQuoter interface {
	Quote(ctx context.Context) (fees.Quote, error)
	Last() (*fees.Quote, time.Time)
}

// OperationRecorder journals finished operations.
type OperationRecorder interface {
	SaveOperation(ctx context.Context, op *models.Operation) error
}

// WrapSchedulerOptions configures amount and delay ranges for the scheduler
type WrapSchedulerOptions struct {
	MinAmount          float64
	MaxAmount          float64
	MinIntervalMinutes float64
	MaxIntervalMinutes float64
	RetryBackoff       time.Duration

	// Reported in Status only
	WalletAddress   string
	ContractAddress string
}

// Status is a point-in-time snapshot of the scheduler
type Status struct {
	Running         bool
	OperationCount  int64
	LastFeeQuote    *fees.Quote
	LastFeeUpdate   time.Time
	WalletAddress   string
	ContractAddress string
}

// WrapScheduler repeatedly wraps or unwraps a random amount, then waits a random
// interval. A failed operation never stops the loop; a failure outside operation
// handling triggers a fixed backoff before the next cycle.
type WrapScheduler struct {
	client   WrapClient
	oracle   FeeQuoter
	picker   *picker.Picker
	recorder OperationRecorder
	logger   *logrus.Logger
	options  WrapSchedulerOptions

	running        atomic.Bool
	operationCount atomic.Int64

	mu     sync.Mutex
	active bool
	done   chan struct{}
}

// NewWrapScheduler creates a new instance of WrapScheduler. recorder may be nil.
func NewWrapScheduler(client WrapClient, oracle FeeQuoter, p *picker.Picker, logger *logrus.Logger, recorder OperationRecorder, options WrapSchedulerOptions) (*WrapScheduler, error) {
	if client == nil {
		return nil, fmt.Errorf("wrap client is required")
	}
	if oracle == nil {
		return nil, fmt.Errorf("fee oracle is required")
	}
	if p == nil {
		p = picker.New()
	}
	if logger == nil {
		logger = logrus.New()
	}
	if options.MinAmount == 0 && options.MaxAmount == 0 {
		options.MinAmount, options.MaxAmount = 1, 5
	}
	if options.MinIntervalMinutes == 0 && options.MaxIntervalMinutes == 0 {
		options.MinIntervalMinutes, options.MaxIntervalMinutes = 1, 2
	}
	if options.RetryBackoff <= 0 {
		options.RetryBackoff = DefaultRetryBackoff
	}
	if options.MinAmount > options.MaxAmount {
		return nil, fmt.Errorf("min amount %v exceeds max amount %v", options.MinAmount, options.MaxAmount)
	}
	if options.MinIntervalMinutes > options.MaxIntervalMinutes {
		return nil, fmt.Errorf("min interval %v exceeds max interval %v", options.MinIntervalMinutes, options.MaxIntervalMinutes)
	}

	return &WrapScheduler{
		client:   client,
		oracle:   oracle,
		picker:   p,
		recorder: recorder,
		logger:   logger,
		options:  options,
	}, nil
}

// Name returns the unique identifier for this action
func (s *WrapScheduler) Name() string {
	return "wrap_scheduler"
}

// Execute implements the Action interface
func (s *WrapScheduler) Execute(ctx context.Context) error {
	return s.Start(ctx)
}

// Stop ends the loop before its next cycle and wakes any pending wait. A
// transaction already awaiting confirmation is allowed to finish. Safe to call at
// any time, more than once.
func (s *WrapScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running.Store(false)
	if s.done != nil {
		select {
		case <-s.done:
		default:
			close(s.done)
		}
	}
}

// Status returns a snapshot of the scheduler and its last fee quote.
func (s *WrapScheduler) Status() Status {
	quote, updated := s.oracle.Last()
	return Status{
		Running:         s.running.Load(),
		OperationCount:  s.operationCount.Load(),
		LastFeeQuote:    quote,
		LastFeeUpdate:   updated,
		WalletAddress:   s.options.WalletAddress,
		ContractAddress: s.options.ContractAddress,
	}
}

// Start runs the loop until Stop is called or ctx is cancelled. Calling Start on a
// scheduler whose loop is already active logs a warning and returns nil.
func (s *WrapScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		s.logger.Warn("Wrap scheduler is already running")
		return nil
	}
	s.active = true
	s.running.Store(true)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	metrics.Running.Set(1)
	defer func() {
		s.mu.Lock()
		s.active = false
		s.running.Store(false)
		s.mu.Unlock()
		metrics.Running.Set(0)
	}()

	log := s.logger.WithFields(logrus.Fields{
		"min_amount":       s.options.MinAmount,
		"max_amount":       s.options.MaxAmount,
		"min_interval_min": s.options.MinIntervalMinutes,
		"max_interval_min": s.options.MaxIntervalMinutes,
	})
	log.Info("Starting wrap scheduler")

	for s.running.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay, err := s.runCycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.Backoffs.Inc()
			s.logger.WithError(err).WithField("backoff", s.options.RetryBackoff).Error("Scheduler cycle failed, backing off")
			delay = s.options.RetryBackoff
		} else {
			s.logger.WithField("delay_minutes", fmt.Sprintf("%.2f", delay.Minutes())).Info("Waiting before next operation")
		}

		if err := wait(ctx, done, delay); err != nil {
			return err
		}
	}

	s.logger.WithField("operation_count", s.operationCount.Load()).Info("Wrap scheduler stopped")
	return nil
}

// runCycle performs one operation and returns the delay before the next one. An
// error means the cycle failed outside operation handling, including by panicking.
func (s *WrapScheduler) runCycle(ctx context.Context) (delay time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	sequence := s.operationCount.Add(1)
	request := s.picker.Request(s.options.MinAmount, s.options.MaxAmount)

	quote, err := s.oracle.Quote(ctx)
	if err != nil {
		return 0, fmt.Errorf("fee estimation failed: %w", err)
	}

	amount := request.Wei()
	if amount.Sign() <= 0 {
		return 0, fmt.Errorf("amount %s is below one wei", request.Amount)
	}

	s.execute(ctx, sequence, request, amount, quote)

	return s.picker.Interval(s.options.MinIntervalMinutes, s.options.MaxIntervalMinutes), nil
}

// execute submits one operation. Its failures are logged and journaled, never returned.
func (s *WrapScheduler) execute(ctx context.Context, sequence int64, request picker.Request, amount *big.Int, quote fees.Quote) {
	log := s.logger.WithFields(logrus.Fields{
		"operation":         sequence,
		"kind":              request.Kind.String(),
		"amount":            request.Amount.StringFixed(4),
		"priority_fee_gwei": quote.PriorityFeeGwei(),
		"max_fee_gwei":      quote.MaxFeeGwei(),
		"tier":              quote.Tier,
	})
	log.Info("Executing operation")

	op := &models.Operation{
		ID:             uuid.New(),
		Sequence:       sequence,
		Kind:           request.Kind.String(),
		Amount:         request.Amount.String(),
		PriorityFeeWei: quote.PriorityFee.String(),
		MaxFeeWei:      quote.MaxFee.String(),
		FeeTier:        string(quote.Tier),
		StartedAt:      time.Now(),
	}

	var (
		status *wallet.TransactionStatus
		err    error
	)
	switch request.Kind {
	case picker.Unwrap:
		status, err = s.client.SubmitUnwrap(ctx, amount, quote)
	default:
		status, err = s.client.SubmitWrap(ctx, amount, quote)
	}
	op.FinishedAt = time.Now()

	if status != nil {
		op.TxHash = status.Hash.Hex()
		op.GasUsed = status.GasUsed
		if status.BlockNumber != nil {
			op.BlockNumber = status.BlockNumber.Uint64()
		}
	}

	if err != nil {
		op.Status = models.StatusFailed
		op.Error = err.Error()
		metrics.Operations.WithLabelValues(op.Kind, string(op.Status)).Inc()
		log.WithError(err).WithFields(logrus.Fields{
			"code":    wallet.ErrorCode(err),
			"tx_hash": op.TxHash,
		}).Error("Operation failed")
		s.record(ctx, op)
		return
	}

	op.Status = models.StatusSucceeded
	metrics.Operations.WithLabelValues(op.Kind, string(op.Status)).Inc()
	log.WithFields(logrus.Fields{
		"tx_hash":  op.TxHash,
		"block":    op.BlockNumber,
		"gas_used": op.GasUsed,
	}).Info("Operation confirmed")

	if balance, err := s.client.WrappedBalance(ctx); err != nil {
		log.WithError(err).Debug("Could not read wrapped balance")
	} else {
		formatted := fees.WeiToEther(balance).String()
		op.WrappedBalance = &formatted
		log.WithField("wrapped_balance", formatted).Info("Updated wrapped balance")
	}

	s.record(ctx, op)
}

// wait sleeps for d, returning early when done is closed or ctx is cancelled.
func wait(ctx context.Context, done <-chan struct{}, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	case <-timer.C:
		return nil
	}
}

func (s *WrapScheduler) record(ctx context.Context, op *models.Operation) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.SaveOperation(ctx, op); err != nil {
		s.logger.WithError(err).WithField("operation", op.Sequence).Warn("Failed to journal operation")
	}
}
