package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/metrics"
	"github.com/punchamoorthee/spinledger/internal/payout"
	"github.com/punchamoorthee/spinledger/internal/wager"
	"github.com/punchamoorthee/spinledger/internal/wheel"
	"go.uber.org/zap"
)

// ErrRuleMismatch means a bet passed validation but the payout table had no
// rule for it. It is a bug, never a user error.
var ErrRuleMismatch = errors.New("validated bet has no payout rule")

// SettleFunc is called by a Store with the account's balance while the
// account is locked. It returns the round to persist, or an error to roll
// back with.
type SettleFunc func(balance domain.Amount) (*domain.Round, error)

// Store persists accounts and rounds. Settle must run the read, the callback
// and the write as one atomic unit, and must serialize calls for the same
// account.
type Store interface {
	// OpenAccount reports created=false when the account already existed.
	OpenAccount(ctx context.Context, id string, initial domain.Amount) (acc *domain.Account, created bool, err error)
	Balance(ctx context.Context, id string) (domain.Amount, error)
	// Settle returns (round, true, nil) without calling fn when the
	// account already has a round for requestKey.
	Settle(ctx context.Context, id, requestKey string, fn SettleFunc) (*domain.Round, bool, error)
	Rounds(ctx context.Context, id string, limit int) ([]domain.Round, error)
	Stats(ctx context.Context, id string) (domain.Stats, error)
}

// Phases of a spin, used in logs and metrics.
const (
	PhaseValidating = "validating"
	PhaseDrawing    = "drawing"
	PhaseSettling   = "settling"
	PhaseRecorded   = "recorded"
	PhaseRejected   = "rejected"
)

// Metric results that are not phases.
const (
	ResultNotFound = "not_found"
	ResultFailed   = "failed"
)

// resultLabel names the outcome of a spin call for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return PhaseRecorded
	case domain.IsBetError(err):
		return PhaseRejected
	case errors.Is(err, domain.ErrAccountNotFound):
		return ResultNotFound
	default:
		return ResultFailed
	}
}

type Engine struct {
	store     Store
	validator *wager.Validator
	wheel     wheel.Generator
	initial   domain.Amount
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Engine)

// WithGenerator replaces the random wheel.
func WithGenerator(g wheel.Generator) Option {
	return func(e *Engine) { e.wheel = g }
}

// WithInitialBalance sets the balance new accounts open with.
func WithInitialBalance(a domain.Amount) Option {
	return func(e *Engine) { e.initial = a }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// DefaultInitialBalance is the opening balance of a new account.
var DefaultInitialBalance = domain.MustAmount("100")

func NewEngine(store Store, validator *wager.Validator, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		validator: validator,
		wheel:     wheel.Random{},
		initial:   DefaultInitialBalance,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenAccount creates the account with the opening balance, or returns the
// existing one untouched with created=false.
func (e *Engine) OpenAccount(ctx context.Context, accountID string) (*domain.Account, bool, error) {
	acc, created, err := e.store.OpenAccount(ctx, accountID, e.initial)
	if err != nil {
		return nil, false, fmt.Errorf("open account: %w", err)
	}
	if created {
		e.log.Info("account opened", zap.String("account_id", accountID), zap.Stringer("balance", acc.Balance))
	}
	return acc, created, nil
}

// ResolveSpin validates bet against the account's current balance, draws an
// outcome, settles the payout and records the round, all in one unit of
// work. Errors are a *domain.BetError (rejected, nothing changed), a
// *domain.EngineError (rolled back, retryable), domain.ErrAccountNotFound, or
// ErrRuleMismatch.
func (e *Engine) ResolveSpin(ctx context.Context, accountID string, bet domain.Bet) (res *domain.SpinResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordSpin(resultLabel(err), string(bet.Kind), start) }()

	log := e.log.With(
		zap.String("account_id", accountID),
		zap.String("kind", string(bet.Kind)),
		zap.Stringer("amount", bet.Amount),
	)

	// Once the balance is locked the spin must reach commit or rollback,
	// whatever happens to the caller's request.
	ctx = context.WithoutCancel(ctx)

	var settleErr error
	round, replayed, err := e.store.Settle(ctx, accountID, bet.RequestKey, func(balance domain.Amount) (*domain.Round, error) {
		r, err := e.settle(log, accountID, bet, balance)
		settleErr = err
		return r, err
	})

	switch {
	case settleErr != nil:
		var be *domain.BetError
		if errors.As(settleErr, &be) {
			log.Info("spin rejected", zap.String("phase", PhaseRejected), zap.Error(settleErr))
			return nil, settleErr
		}
		log.Error("spin settlement failed", zap.String("phase", PhaseSettling), zap.Error(settleErr))
		return nil, settleErr
	case errors.Is(err, domain.ErrAccountNotFound):
		return nil, err
	case err != nil:
		log.Warn("spin rolled back", zap.String("phase", PhaseRecorded), zap.Error(err))
		return nil, &domain.EngineError{Op: "record round", Err: err}
	}

	if !replayed {
		metrics.RecordMoney(int64(round.Amount), int64(round.Payout))
	}
	log.Info("spin resolved",
		zap.String("round_id", round.ID),
		zap.Int("outcome", round.Outcome),
		zap.Bool("won", round.Won),
		zap.Stringer("payout", round.Payout),
		zap.Stringer("balance", round.Balance),
		zap.Bool("replayed", replayed),
	)

	return &domain.SpinResult{
		Round:      *round,
		Outcome:    round.Outcome,
		Won:        round.Won,
		Payout:     round.Payout,
		NewBalance: round.Balance,
		Replayed:   replayed,
	}, nil
}

// settle runs validating, drawing and settling against a locked balance.
func (e *Engine) settle(log *zap.Logger, accountID string, bet domain.Bet, balance domain.Amount) (*domain.Round, error) {
	log.Debug("spin phase", zap.String("phase", PhaseValidating), zap.Stringer("balance", balance))
	if err := e.validator.Validate(bet, balance); err != nil {
		return nil, err
	}
	bet.Selector = wager.Canonical(bet.Kind, bet.Selector)

	outcome := e.wheel.Draw()
	log.Debug("spin phase", zap.String("phase", PhaseDrawing), zap.Int("outcome", outcome))

	won, pay, err := payout.Evaluate(bet.Kind, bet.Selector, outcome, bet.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleMismatch, err)
	}

	newBalance := balance - bet.Amount + pay
	if newBalance < 0 {
		return nil, fmt.Errorf("%w: negative balance %s", ErrRuleMismatch, newBalance)
	}

	return &domain.Round{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Amount:     bet.Amount,
		Kind:       bet.Kind,
		Selector:   bet.Selector,
		Outcome:    outcome,
		Won:        won,
		Payout:     pay,
		Balance:    newBalance,
		RequestKey: bet.RequestKey,
		CreatedAt:  e.now().UTC(),
	}, nil
}

func (e *Engine) GetBalance(ctx context.Context, accountID string) (domain.Amount, error) {
	return e.store.Balance(ctx, accountID)
}

// GetHistory lists rounds most recent first. limit <= 0 returns all of them.
func (e *Engine) GetHistory(ctx context.Context, accountID string, limit int) ([]domain.Round, error) {
	if _, err := e.store.Balance(ctx, accountID); err != nil {
		return nil, err
	}
	return e.store.Rounds(ctx, accountID, limit)
}

func (e *Engine) GetStats(ctx context.Context, accountID string) (domain.Stats, error) {
	if _, err := e.store.Balance(ctx, accountID); err != nil {
		return domain.Stats{}, err
	}
	return e.store.Stats(ctx, accountID)
}

// MaxBet is the configured single-bet ceiling.
func (e *Engine) MaxBet() domain.Amount { return e.validator.MaxBet() }
