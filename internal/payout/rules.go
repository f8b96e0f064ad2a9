// Package payout holds the roulette rule table. Everything here is pure.
package payout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/punchamoorthee/spinledger/internal/domain"
)

var ErrUnknownKind = errors.New("payout: no rule for bet kind")

// Payout factors. The credited payout includes the stake.
const (
	SingleNumberFactor = 36
	EvenMoneyFactor    = 2
)

type Color string

const (
	Red   Color = "red"
	Black Color = "black"
	Green Color = "green"
)

var red = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// ColorOf returns the pocket color. Zero is green.
func ColorOf(outcome int) Color {
	switch {
	case outcome == 0:
		return Green
	case red[outcome]:
		return Red
	default:
		return Black
	}
}

// ParseColor accepts red or black in any case.
func ParseColor(s string) (Color, bool) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case Red, Black:
		return c, true
	}
	return "", false
}

// ParseNumber reads a single-number selector.
func ParseNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < domain.MinOutcome || n > domain.MaxOutcome {
		return 0, false
	}
	return n, true
}

// Evaluate applies the rule for kind. A selector that does not parse for its
// kind never wins; the validator rejects those before a spin is drawn.
func Evaluate(kind domain.BetKind, selector string, outcome int, amount domain.Amount) (bool, domain.Amount, error) {
	var won bool
	factor := int64(EvenMoneyFactor)

	switch kind {
	case domain.KindSingleNumber:
		n, ok := ParseNumber(selector)
		won = ok && n == outcome
		factor = SingleNumberFactor
	case domain.KindColor:
		c, ok := ParseColor(selector)
		won = ok && outcome != 0 && ColorOf(outcome) == c
	case domain.KindParityOdd:
		won = outcome%2 == 1
	case domain.KindParityEven:
		won = outcome != 0 && outcome%2 == 0
	case domain.KindHighRange:
		won = outcome >= 19 && outcome <= 36
	case domain.KindLowRange:
		won = outcome >= 1 && outcome <= 18
	default:
		return false, 0, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}

	if !won {
		return false, 0, nil
	}
	return true, amount.Times(factor), nil
}
