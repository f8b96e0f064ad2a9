package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/service"
	"github.com/punchamoorthee/spinledger/internal/store"
)

func round(accountID string, amount, payout, balance domain.Amount, outcome int, key string) *domain.Round {
	return &domain.Round{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Amount:     amount,
		Kind:       domain.KindParityOdd,
		Outcome:    outcome,
		Won:        payout > 0,
		Payout:     payout,
		Balance:    balance,
		RequestKey: key,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// exerciseStore runs the behavior every service.Store must share.
func exerciseStore(t *testing.T, s service.Store, id string) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Balance(ctx, id); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("balance of missing account: %v", err)
	}
	if _, _, err := s.Settle(ctx, id, "", nil); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("settle of missing account: %v", err)
	}

	acc, created, err := s.OpenAccount(ctx, id, 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !created || acc.Balance != 1000 || acc.ID != id {
		t.Fatalf("opened %+v", acc)
	}

	stats, err := s.Stats(ctx, id)
	if err != nil || stats != (domain.Stats{}) {
		t.Fatalf("empty stats = %+v, %v", stats, err)
	}

	// Rejected settlement leaves everything untouched.
	reject := errors.New("rejected")
	if _, _, err := s.Settle(ctx, id, "", func(domain.Amount) (*domain.Round, error) { return nil, reject }); !errors.Is(err, reject) {
		t.Fatalf("expected callback error, got %v", err)
	}

	var seen domain.Amount
	r1, replayed, err := s.Settle(ctx, id, "k1", func(b domain.Amount) (*domain.Round, error) {
		seen = b
		return round(id, 100, 200, b+100, 7, "k1"), nil
	})
	if err != nil || replayed {
		t.Fatalf("settle: %v, replayed=%v", err, replayed)
	}
	if seen != 1000 {
		t.Errorf("callback saw balance %d", seen)
	}

	_, _, err = s.Settle(ctx, id, "", func(b domain.Amount) (*domain.Round, error) {
		return round(id, 300, 0, b-300, 8, ""), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	again, replayed, err := s.Settle(ctx, id, "k1", func(domain.Amount) (*domain.Round, error) {
		t.Fatal("callback ran for a replayed key")
		return nil, nil
	})
	if err != nil || !replayed || again.ID != r1.ID {
		t.Fatalf("replay = %+v, %v, %v", again, replayed, err)
	}

	balance, _ := s.Balance(ctx, id)
	if balance != 800 {
		t.Errorf("balance = %d, want 800", balance)
	}

	rounds, err := s.Rounds(ctx, id, 0)
	if err != nil || len(rounds) != 2 {
		t.Fatalf("rounds = %d, %v", len(rounds), err)
	}
	if rounds[0].Outcome != 8 || rounds[1].Outcome != 7 {
		t.Errorf("rounds not most recent first")
	}
	if rounds[1].Payout != 200 || rounds[1].Balance != 1100 || rounds[1].Kind != domain.KindParityOdd {
		t.Errorf("round fields lost: %+v", rounds[1])
	}

	limited, _ := s.Rounds(ctx, id, 1)
	if len(limited) != 1 || limited[0].Outcome != 8 {
		t.Errorf("limit 1 = %+v", limited)
	}

	stats, _ = s.Stats(ctx, id)
	if stats.Count != 2 || stats.Wins != 1 || stats.Losses != 1 || stats.WinRate != 50 {
		t.Errorf("stats = %+v", stats)
	}

	reopened, created, _ := s.OpenAccount(ctx, id, 1000)
	if created || reopened.Balance != 800 {
		t.Errorf("reopen = %+v, created=%v", reopened, created)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, store.NewMemory(), "alice")
}

func TestMemoryRejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	s.OpenAccount(ctx, "alice", 100)

	_, _, err := s.Settle(ctx, "alice", "", func(b domain.Amount) (*domain.Round, error) {
		return round("alice", 200, 0, b-200, 2, ""), nil
	})
	if err == nil {
		t.Fatal("expected an error for a negative balance")
	}
	if b, _ := s.Balance(ctx, "alice"); b != 100 {
		t.Errorf("balance = %d", b)
	}
}
