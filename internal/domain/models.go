package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wheel bounds. Outcomes are drawn from [MinOutcome, MaxOutcome].
const (
	MinOutcome = 0
	MaxOutcome = 36
)

// BetKind is the family of a wager. It decides how the selector is read and
// which rule the payout table applies.
type BetKind string

const (
	KindSingleNumber BetKind = "single-number"
	KindColor        BetKind = "color"
	KindParityOdd    BetKind = "parity-odd"
	KindParityEven   BetKind = "parity-even"
	KindHighRange    BetKind = "high-range"
	KindLowRange     BetKind = "low-range"
)

// Short names sent by the web client.
var kindAliases = map[string]BetKind{
	"number": KindSingleNumber,
	"odd":    KindParityOdd,
	"even":   KindParityEven,
	"high":   KindHighRange,
	"low":    KindLowRange,
}

// ParseBetKind normalizes a wire value into a BetKind.
func ParseBetKind(s string) (BetKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch k := BetKind(s); k {
	case KindSingleNumber, KindColor, KindParityOdd, KindParityEven, KindHighRange, KindLowRange:
		return k, nil
	}
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	return "", &BetError{Reason: ErrUnknownBetKind, Detail: fmt.Sprintf("unknown bet kind %q", s)}
}

// Account represents a player's balance in the ledger.
type Account struct {
	ID        string    `json:"id"`
	Balance   Amount    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Bet is the transient input to a round. It is never stored on its own.
type Bet struct {
	Amount   Amount  `json:"amount"`
	Kind     BetKind `json:"kind"`
	Selector string  `json:"selector"`
	// RequestKey lets a client retry a spin without being charged twice.
	RequestKey string `json:"-"`
}

// Round is the immutable record of one resolved spin.
type Round struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Amount     Amount    `json:"amount"`
	Kind       BetKind   `json:"kind"`
	Selector   string    `json:"selector"`
	Outcome    int       `json:"outcome"`
	Won        bool      `json:"won"`
	Payout     Amount    `json:"payout"`
	Balance    Amount    `json:"balance_after"`
	RequestKey string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// SpinResult is what the engine hands back for a resolved spin.
type SpinResult struct {
	Round      Round  `json:"round"`
	Outcome    int    `json:"outcome"`
	Won        bool   `json:"won"`
	Payout     Amount `json:"payout"`
	NewBalance Amount `json:"new_balance"`
	// Replayed is set when the result was recorded by an earlier request
	// carrying the same request key.
	Replayed bool `json:"replayed"`
}

// Stats summarizes an account's rounds.
type Stats struct {
	Count   int64   `json:"count"`
	Wins    int64   `json:"wins"`
	Losses  int64   `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// NewStats derives losses and the win rate (percent, two decimals, half to
// even) from the round and win counts. An account with no rounds has a win
// rate of 0.
func NewStats(count, wins int64) Stats {
	s := Stats{Count: count, Wins: wins, Losses: count - wins}
	if count == 0 {
		return s
	}
	rate := decimal.NewFromInt(wins).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(count)).
		RoundBank(2)
	s.WinRate = rate.InexactFloat64()
	return s
}
