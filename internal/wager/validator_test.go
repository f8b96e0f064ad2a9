package wager_test

import (
	"errors"
	"testing"

	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/wager"
)

func TestValidate(t *testing.T) {
	v := wager.New(wager.Limits{})
	balance := domain.MustAmount("2000")

	tests := []struct {
		name    string
		bet     domain.Bet
		balance domain.Amount
		want    error
	}{
		{"valid number", domain.Bet{Amount: 1000, Kind: domain.KindSingleNumber, Selector: "36"}, balance, nil},
		{"valid color", domain.Bet{Amount: 1000, Kind: domain.KindColor, Selector: "Red"}, balance, nil},
		{"valid odd empty selector", domain.Bet{Amount: 1000, Kind: domain.KindParityOdd}, balance, nil},
		{"valid even word selector", domain.Bet{Amount: 1000, Kind: domain.KindParityEven, Selector: "even"}, balance, nil},
		{"at ceiling", domain.Bet{Amount: domain.MustAmount("1000"), Kind: domain.KindHighRange}, balance, nil},
		{"whole balance", domain.Bet{Amount: 500, Kind: domain.KindLowRange}, 500, nil},
		{"zero amount", domain.Bet{Amount: 0, Kind: domain.KindParityOdd}, balance, domain.ErrInvalidAmount},
		{"negative amount", domain.Bet{Amount: -100, Kind: domain.KindParityOdd}, balance, domain.ErrInvalidAmount},
		{"above ceiling", domain.Bet{Amount: domain.MustAmount("1001"), Kind: domain.KindParityOdd}, balance, domain.ErrAboveCeiling},
		{"insufficient funds", domain.Bet{Amount: domain.MustAmount("10"), Kind: domain.KindParityOdd}, domain.MustAmount("5"), domain.ErrInsufficientFunds},
		{"number not numeric", domain.Bet{Amount: 100, Kind: domain.KindSingleNumber, Selector: "red"}, balance, domain.ErrInvalidSelector},
		{"number off wheel", domain.Bet{Amount: 100, Kind: domain.KindSingleNumber, Selector: "37"}, balance, domain.ErrInvalidSelector},
		{"number negative", domain.Bet{Amount: 100, Kind: domain.KindSingleNumber, Selector: "-1"}, balance, domain.ErrInvalidSelector},
		{"color green", domain.Bet{Amount: 100, Kind: domain.KindColor, Selector: "green"}, balance, domain.ErrInvalidSelector},
		{"even with number", domain.Bet{Amount: 100, Kind: domain.KindParityEven, Selector: "4"}, balance, domain.ErrInvalidSelector},
		{"unknown kind", domain.Bet{Amount: 100, Kind: "split", Selector: "1-2"}, balance, domain.ErrUnknownBetKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.bet, tt.balance)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !domain.IsBetError(err) {
				t.Errorf("expected a *BetError, got %T", err)
			}
		})
	}
}

func TestCustomCeiling(t *testing.T) {
	v := wager.New(wager.Limits{MaxBet: domain.MustAmount("50")})
	if v.MaxBet() != domain.MustAmount("50") {
		t.Fatalf("MaxBet = %s", v.MaxBet())
	}
	err := v.Validate(domain.Bet{Amount: domain.MustAmount("50.01"), Kind: domain.KindColor, Selector: "red"}, domain.MustAmount("100"))
	if !errors.Is(err, domain.ErrAboveCeiling) {
		t.Fatalf("expected ErrAboveCeiling, got %v", err)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		kind     domain.BetKind
		selector string
		want     string
	}{
		{domain.KindSingleNumber, "+17", "17"},
		{domain.KindSingleNumber, "017", "17"},
		{domain.KindSingleNumber, " 0 ", "0"},
		{domain.KindColor, "RED", "red"},
		{domain.KindParityOdd, "parity-odd", "odd"},
		{domain.KindHighRange, "High", "high"},
		{domain.KindLowRange, "", ""},
	}
	for _, tt := range tests {
		if got := wager.Canonical(tt.kind, tt.selector); got != tt.want {
			t.Errorf("Canonical(%s, %q) = %q, want %q", tt.kind, tt.selector, got, tt.want)
		}
	}
}
