package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/punchamoorthee/spinledger/internal/domain"
	"github.com/punchamoorthee/spinledger/internal/service"
)

//go:embed schema.sql
var schema string

var errNegativeBalance = errors.New("balance would go negative")

// Postgres keeps accounts and rounds in PostgreSQL. Settle holds a row lock
// on the account for the whole transaction.
type Postgres struct {
	Db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Postgres{Db: pool}, nil
}

func (s *Postgres) Close() {
	s.Db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.Db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Postgres) OpenAccount(ctx context.Context, id string, initial domain.Amount) (*domain.Account, bool, error) {
	tag, err := s.Db.Exec(ctx,
		"INSERT INTO accounts (id, balance) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING",
		id, int64(initial))
	if err != nil {
		return nil, false, fmt.Errorf("account insert failed: %w", err)
	}
	created := tag.RowsAffected() == 1

	var acc domain.Account
	var balance int64
	err = s.Db.QueryRow(ctx, "SELECT id, balance, created_at FROM accounts WHERE id = $1", id).
		Scan(&acc.ID, &balance, &acc.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("account read failed: %w", err)
	}
	acc.Balance = domain.Amount(balance)
	return &acc, created, nil
}

func (s *Postgres) Balance(ctx context.Context, id string) (domain.Amount, error) {
	var balance int64
	err := s.Db.QueryRow(ctx, "SELECT balance FROM accounts WHERE id = $1", id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("balance query failed: %w", err)
	}
	return domain.Amount(balance), nil
}

const roundColumns = "id, account_id, amount, kind, selector, outcome, won, payout, balance_after, request_key, created_at"

// Settle runs the locked read, fn, and the round insert plus balance update
// in one transaction.
func (s *Postgres) Settle(ctx context.Context, id, requestKey string, fn service.SettleFunc) (*domain.Round, bool, error) {
	// READ COMMITTED with FOR UPDATE makes a second spin on the same account
	// wait for the first to commit and then read its balance.
	tx, err := s.Db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, false, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, "SELECT balance FROM accounts WHERE id = $1 FOR UPDATE", id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrAccountNotFound
		}
		return nil, false, fmt.Errorf("lock acquisition failed: %w", err)
	}

	if requestKey != "" {
		row := tx.QueryRow(ctx,
			"SELECT "+roundColumns+" FROM rounds WHERE account_id = $1 AND request_key = $2",
			id, requestKey)
		existing, err := scanRound(row)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("request key lookup failed: %w", err)
		}
	}

	round, err := fn(domain.Amount(balance))
	if err != nil {
		return nil, false, err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO rounds ("+roundColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		round.ID, round.AccountID, int64(round.Amount), string(round.Kind), round.Selector,
		round.Outcome, round.Won, int64(round.Payout), int64(round.Balance), round.RequestKey, round.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("round insert failed: %w", translate(err))
	}

	_, err = tx.Exec(ctx, "UPDATE accounts SET balance = $1 WHERE id = $2", int64(round.Balance), id)
	if err != nil {
		return nil, false, fmt.Errorf("balance update failed: %w", translate(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("tx commit failed: %w", err)
	}
	return round, false, nil
}

func (s *Postgres) Rounds(ctx context.Context, id string, limit int) ([]domain.Round, error) {
	query := "SELECT " + roundColumns + " FROM rounds WHERE account_id = $1 ORDER BY seq DESC"
	args := []any{id}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.Db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rounds query failed: %w", err)
	}
	defer rows.Close()

	rounds := []domain.Round{}
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("round scan failed: %w", err)
		}
		rounds = append(rounds, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rounds iteration failed: %w", err)
	}
	return rounds, nil
}

func (s *Postgres) Stats(ctx context.Context, id string) (domain.Stats, error) {
	var count, wins int64
	err := s.Db.QueryRow(ctx,
		"SELECT count(*), count(*) FILTER (WHERE won) FROM rounds WHERE account_id = $1",
		id).Scan(&count, &wins)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats query failed: %w", err)
	}
	return domain.NewStats(count, wins), nil
}

func scanRound(row pgx.Row) (*domain.Round, error) {
	var (
		r                       domain.Round
		kind                    string
		amount, payout, balance int64
	)
	err := row.Scan(&r.ID, &r.AccountID, &amount, &kind, &r.Selector, &r.Outcome,
		&r.Won, &payout, &balance, &r.RequestKey, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Kind = domain.BetKind(kind)
	r.Amount = domain.Amount(amount)
	r.Payout = domain.Amount(payout)
	r.Balance = domain.Amount(balance)
	return &r, nil
}

// translate maps constraint violations onto store errors.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		return fmt.Errorf("%w: %s", errNegativeBalance, pgErr.ConstraintName)
	}
	return err
}

var _ service.Store = (*Postgres)(nil)
