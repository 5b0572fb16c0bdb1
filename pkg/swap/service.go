package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mvx-swap/pkg/metrics"
	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
	"mvx-swap/pkg/venue"
)

// Estimator produces the expected outcome of a swap
type Estimator interface {
	Estimate(ctx context.Context, tokenIn, tokenOut types.TokenID, amountIn decimal.Decimal) (*types.SwapEstimate, error)
}

// BuilderSource resolves the transaction builder of a venue
type BuilderSource interface {
	Builder(id types.VenueID) (venue.TransactionBuilder, error)
}

// Wallet signs and broadcasts transactions on behalf of the user
type Wallet interface {
	Sign(ctx context.Context, t *tx.Transaction) (*tx.SignedTransaction, error)
	Send(ctx context.Context, signed *tx.SignedTransaction) (string, error)
}

// Prepared is a swap ready to be signed
type Prepared struct {
	Estimate     *types.SwapEstimate `json:"estimate"`
	MinAmountOut decimal.Decimal     `json:"min_amount_out"`
	Transaction  *tx.Transaction     `json:"transaction"`
}

// Service runs the swap protocol: estimate, select the venue, build the call
// and hand it to the wallet. It holds no per-swap state.
type Service struct {
	estimator Estimator
	builders  BuilderSource
	wallet    Wallet
	log       *zap.Logger
	now       func() time.Time
}

// NewService wires the executor. wallet may be nil when only estimates and
// unsigned transactions are needed.
func NewService(estimator Estimator, builders BuilderSource, wallet Wallet, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		estimator: estimator,
		builders:  builders,
		wallet:    wallet,
		log:       log,
		now:       time.Now,
	}
}

// EstimateSwap summarizes the best venue and expected output for a swap
func (s *Service) EstimateSwap(ctx context.Context, tokenIn, tokenOut types.TokenID, amountIn decimal.Decimal) (*types.SwapSummary, error) {
	if tokenIn == "" || tokenOut == "" {
		return nil, &Error{Op: opEstimate, State: StateInit, Err: fmt.Errorf("%w: token pair is incomplete", types.ErrInvalidOrder)}
	}

	est, err := s.estimator.Estimate(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, &Error{Op: opEstimate, State: StateEstimating, Err: estimationError(err)}
	}

	return &types.SwapSummary{
		BestVenue:          est.Venue,
		EstimatedAmountOut: est.AmountOut,
		PriceImpact:        est.PriceImpact,
		AllQuotes:          est.AllQuotes,
	}, nil
}

// PrepareSwap runs the protocol up to the signed-ready transaction
func (s *Service) PrepareSwap(ctx context.Context, order types.SwapOrder) (*Prepared, error) {
	return s.prepare(ctx, order)
}

// ExecuteSwap runs the whole protocol and broadcasts the transaction. A failed
// swap returns both the failure record and the error.
func (s *Service) ExecuteSwap(ctx context.Context, order types.SwapOrder) (*types.ExecutionResult, error) {
	result, log := s.newResult(order)

	if s.wallet == nil {
		return s.fail(log, result, errNoWallet())
	}

	p, err := s.prepare(ctx, order)
	if err != nil {
		return s.fail(log, result, err)
	}
	return s.send(ctx, log, result, order, p)
}

// ExecutePrepared signs and broadcasts a swap returned by PrepareSwap without
// quoting again, so the transaction sent is the one that was reviewed.
func (s *Service) ExecutePrepared(ctx context.Context, order types.SwapOrder, p *Prepared) (*types.ExecutionResult, error) {
	result, log := s.newResult(order)

	if s.wallet == nil {
		return s.fail(log, result, errNoWallet())
	}
	if err := order.Validate(); err != nil {
		return s.fail(log, result, &Error{Op: opSwap, State: StateInit, Err: err})
	}
	if p == nil || p.Estimate == nil || p.Transaction == nil {
		return s.fail(log, result, &Error{Op: opSwap, State: StateBuildingTx,
			Err: fmt.Errorf("%w: prepared swap is incomplete", types.ErrInvalidOrder)})
	}
	if p.Transaction.Sender != order.UserAddress {
		return s.fail(log, result, &Error{Op: opSwap, State: StateBuildingTx,
			Err: fmt.Errorf("%w: prepared transaction is from %s, order is from %s", types.ErrInvalidOrder, p.Transaction.Sender, order.UserAddress)})
	}
	if p.Estimate.TokenIn != order.TokenIn || p.Estimate.TokenOut != order.TokenOut || !p.Estimate.AmountIn.Equal(order.AmountIn) {
		return s.fail(log, result, &Error{Op: opSwap, State: StateBuildingTx,
			Err: fmt.Errorf("%w: prepared swap does not match the order", types.ErrInvalidOrder)})
	}

	return s.send(ctx, log, result, order, p)
}

func (s *Service) newResult(order types.SwapOrder) (*types.ExecutionResult, *zap.Logger) {
	result := &types.ExecutionResult{
		ID:        uuid.NewString(),
		TokenIn:   order.TokenIn,
		TokenOut:  order.TokenOut,
		AmountIn:  order.AmountIn,
		Timestamp: s.now().UTC(),
	}
	return result, s.log.With(zap.String("swap_id", result.ID))
}

func errNoWallet() error {
	return &Error{Op: opSwap, State: StateInit, Err: fmt.Errorf("%w: no wallet configured", types.ErrSigning)}
}

// send signs the prepared transaction as built and broadcasts it
func (s *Service) send(ctx context.Context, log *zap.Logger, result *types.ExecutionResult, order types.SwapOrder, p *Prepared) (*types.ExecutionResult, error) {
	s.transition(log, StateBuildingTx, StateSigning)
	signed, err := s.wallet.Sign(ctx, p.Transaction)
	if err != nil {
		return s.fail(log, result, &Error{Op: opSwap, State: StateSigning, Err: err})
	}

	hash, err := s.wallet.Send(ctx, signed)
	if err != nil {
		return s.fail(log, result, &Error{Op: opSwap, State: StateSigning, Err: err})
	}
	s.transition(log, StateSigning, StateDone)

	result.Status = types.StatusSuccess
	result.Venue = p.Estimate.Venue
	result.TxHash = hash
	result.EstimatedAmountOut = p.Estimate.AmountOut
	result.MinAmountOut = p.MinAmountOut
	metrics.Swaps.WithLabelValues(string(types.StatusSuccess)).Inc()

	log.Info("swap executed",
		zap.String("venue", string(result.Venue)),
		zap.String("tx_hash", hash),
		zap.String("amount_in", order.AmountIn.String()),
		zap.String("min_amount_out", p.MinAmountOut.String()))

	return result, nil
}

func (s *Service) prepare(ctx context.Context, order types.SwapOrder) (*Prepared, error) {
	log := s.log.With(zap.String("pair", string(order.TokenIn)+"-"+string(order.TokenOut)))

	if err := order.Validate(); err != nil {
		return nil, &Error{Op: opSwap, State: StateInit, Err: err}
	}

	s.transition(log, StateInit, StateEstimating)
	est, err := s.estimator.Estimate(ctx, order.TokenIn, order.TokenOut, order.AmountIn)
	if err != nil {
		return nil, &Error{Op: opSwap, State: StateEstimating, Err: estimationError(err)}
	}

	s.transition(log, StateEstimating, StateVenueSelected)
	metrics.VenueSelected.WithLabelValues(string(est.Venue)).Inc()
	builder, err := s.builders.Builder(est.Venue)
	if err != nil {
		return nil, &Error{Op: opSwap, State: StateVenueSelected, Err: err}
	}

	minOut := types.MinAmountOut(est.AmountOut, order.SlippageTolerance)

	s.transition(log, StateVenueSelected, StateBuildingTx)
	t, err := builder.BuildSwap(ctx, tx.SwapRequest{
		TokenIn:      order.TokenIn,
		TokenOut:     order.TokenOut,
		AmountIn:     order.AmountIn,
		MinAmountOut: minOut,
		Sender:       order.UserAddress,
	})
	if err != nil {
		return nil, &Error{Op: opSwap, State: StateBuildingTx, Err: err}
	}

	return &Prepared{Estimate: est, MinAmountOut: minOut, Transaction: t}, nil
}

func (s *Service) fail(log *zap.Logger, result *types.ExecutionResult, err error) (*types.ExecutionResult, error) {
	from := StateInit
	var se *Error
	if errors.As(err, &se) {
		from = se.State
	}
	s.transition(log, from, StateFailed)

	result.Status = types.StatusFailure
	result.Error = err.Error()
	metrics.Swaps.WithLabelValues(string(types.StatusFailure)).Inc()

	log.Warn("swap failed", zap.Stringer("state", from), zap.Error(err))
	return result, err
}

func (s *Service) transition(log *zap.Logger, from, to State) {
	log.Debug("swap state", zap.Stringer("from", from), zap.Stringer("to", to))
}

// estimationError marks a failure of the estimating step
func estimationError(err error) error {
	if errors.Is(err, types.ErrEstimationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrEstimationFailed, err)
}
