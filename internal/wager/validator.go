// Package wager checks bets against house limits and the bettor's balance.
package wager

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/payout"
)

// DefaultMaxBet is the house ceiling for a single bet.
var DefaultMaxBet = domain.MustAmount("1000")

type Limits struct {
	MaxBet domain.Amount
}

type Validator struct {
	limits Limits
}

func New(limits Limits) *Validator {
	if limits.MaxBet <= 0 {
		limits.MaxBet = DefaultMaxBet
	}
	return &Validator{limits: limits}
}

func (v *Validator) MaxBet() domain.Amount { return v.limits.MaxBet }

// Validate returns nil or a *domain.BetError. It has no side effects.
func (v *Validator) Validate(bet domain.Bet, balance domain.Amount) error {
	if _, known := kinds[bet.Kind]; !known {
		return &domain.BetError{Reason: domain.ErrUnknownBetKind, Detail: fmt.Sprintf("unknown bet kind %q", bet.Kind)}
	}
	if bet.Amount <= 0 {
		return &domain.BetError{Reason: domain.ErrInvalidAmount, Detail: fmt.Sprintf("amount %s must be positive", bet.Amount)}
	}
	if bet.Amount > v.limits.MaxBet {
		return &domain.BetError{Reason: domain.ErrAboveCeiling, Detail: fmt.Sprintf("amount %s above maximum %s", bet.Amount, v.limits.MaxBet)}
	}
	if bet.Amount > balance {
		return &domain.BetError{Reason: domain.ErrInsufficientFunds, Detail: fmt.Sprintf("have %s, need %s", balance, bet.Amount)}
	}
	return validateSelector(bet.Kind, bet.Selector)
}

var kinds = map[domain.BetKind]struct{}{
	domain.KindSingleNumber: {},
	domain.KindColor:        {},
	domain.KindParityOdd:    {},
	domain.KindParityEven:   {},
	domain.KindHighRange:    {},
	domain.KindLowRange:     {},
}

// Selector words accepted for even-money bets.
var kindWords = map[domain.BetKind]string{
	domain.KindParityOdd:  "odd",
	domain.KindParityEven: "even",
	domain.KindHighRange:  "high",
	domain.KindLowRange:   "low",
}

func validateSelector(kind domain.BetKind, selector string) error {
	sel := strings.TrimSpace(selector)
	switch kind {
	case domain.KindSingleNumber:
		if _, ok := payout.ParseNumber(sel); !ok {
			return &domain.BetError{Reason: domain.ErrInvalidSelector, Detail: fmt.Sprintf("number must be %d-%d, got %q", domain.MinOutcome, domain.MaxOutcome, selector)}
		}
	case domain.KindColor:
		if _, ok := payout.ParseColor(sel); !ok {
			return &domain.BetError{Reason: domain.ErrInvalidSelector, Detail: fmt.Sprintf("color must be red or black, got %q", selector)}
		}
	case domain.KindParityOdd, domain.KindParityEven, domain.KindHighRange, domain.KindLowRange:
		if sel != "" && !strings.EqualFold(sel, kindWords[kind]) && !strings.EqualFold(sel, string(kind)) {
			return &domain.BetError{Reason: domain.ErrInvalidSelector, Detail: fmt.Sprintf("%s takes no selector, got %q", kind, selector)}
		}
	default:
		return &domain.BetError{Reason: domain.ErrUnknownBetKind, Detail: fmt.Sprintf("unknown bet kind %q", kind)}
	}
	return nil
}

// Canonical returns the stored form of a valid selector: a number without
// sign or leading zeros, a lower-case color, or the even-money word. Empty
// even-money selectors stay empty.
func Canonical(kind domain.BetKind, selector string) string {
	sel := strings.TrimSpace(selector)
	switch kind {
	case domain.KindSingleNumber:
		if n, ok := payout.ParseNumber(sel); ok {
			return strconv.Itoa(n)
		}
	case domain.KindColor:
		if c, ok := payout.ParseColor(sel); ok {
			return string(c)
		}
	default:
		if w, ok := kindWords[kind]; ok && sel != "" {
			return w
		}
	}
	return sel
}
