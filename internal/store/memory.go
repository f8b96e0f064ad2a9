package store

import (
	"context"
	"sync"
	"time"

	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/service"
)

// Memory is an in-process Store. Each account has its own mutex, so spins
// on one account are serialized and spins on different accounts are not.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*memAccount
}

type memAccount struct {
	mu        sync.Mutex
	balance   domain.Amount
	createdAt time.Time
	rounds    []domain.Round
	keys      map[string]int
	wins      int64
}

func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]*memAccount)}
}

func (m *Memory) account(id string) (*memAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc, nil
}

func (m *Memory) OpenAccount(ctx context.Context, id string, initial domain.Amount) (*domain.Account, bool, error) {
	m.mu.Lock()
	acc, ok := m.accounts[id]
	if !ok {
		acc = &memAccount{balance: initial, createdAt: time.Now().UTC(), keys: make(map[string]int)}
		m.accounts[id] = acc
	}
	m.mu.Unlock()

	acc.mu.Lock()
	defer acc.mu.Unlock()
	return &domain.Account{ID: id, Balance: acc.balance, CreatedAt: acc.createdAt}, !ok, nil
}

func (m *Memory) Balance(ctx context.Context, id string) (domain.Amount, error) {
	acc, err := m.account(id)
	if err != nil {
		return 0, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

func (m *Memory) Settle(ctx context.Context, id, requestKey string, fn service.SettleFunc) (*domain.Round, bool, error) {
	acc, err := m.account(id)
	if err != nil {
		return nil, false, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if requestKey != "" {
		if i, ok := acc.keys[requestKey]; ok {
			r := acc.rounds[i]
			return &r, true, nil
		}
	}

	round, err := fn(acc.balance)
	if err != nil {
		return nil, false, err
	}
	if round.Balance < 0 {
		return nil, false, errNegativeBalance
	}

	acc.rounds = append(acc.rounds, *round)
	if requestKey != "" {
		acc.keys[requestKey] = len(acc.rounds) - 1
	}
	if round.Won {
		acc.wins++
	}
	acc.balance = round.Balance
	return round, false, nil
}

func (m *Memory) Rounds(ctx context.Context, id string, limit int) ([]domain.Round, error) {
	acc, err := m.account(id)
	if err != nil {
		return nil, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()

	n := len(acc.rounds)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Round, 0, n)
	for i := len(acc.rounds) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, acc.rounds[i])
	}
	return out, nil
}

func (m *Memory) Stats(ctx context.Context, id string) (domain.Stats, error) {
	acc, err := m.account(id)
	if err != nil {
		return domain.Stats{}, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return domain.NewStats(int64(len(acc.rounds)), acc.wins), nil
}

var _ service.Store = (*Memory)(nil)
