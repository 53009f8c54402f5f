package drops

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/model"
)

// Recorder persists the output of a run.
type Recorder interface {
	RecordTransactions(ctx context.Context, role model.Role, txns []model.Transaction) error
	RecordAccounts(ctx context.Context, accounts []model.Account) error
}

// Observer receives per-drop statistics.
type Observer interface {
	ObserveDrop(role model.Role, txns []model.Transaction, batches int)
}

type nopObserver struct{}

func (nopObserver) ObserveDrop(model.Role, []model.Transaction, int) {}

// Result summarizes one simulator run.
type Result struct {
	Role         model.Role
	Drops        int
	Batches      int
	Declined     int
	Transactions []model.Transaction
}

// Simulator runs a drop population through one reusable Drop.
type Simulator struct {
	drop      *Drop
	table     *accounts.Table
	recorders []Recorder
	observer  Observer
	logger    *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRecorder adds a Recorder the result is persisted through.
func WithRecorder(r Recorder) Option {
	return func(s *Simulator) { s.recorders = append(s.recorders, r) }
}

// WithObserver sets the per-drop Observer.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// NewSimulator creates a Simulator. table must be the table the drop's
// Allocator labels.
func NewSimulator(drop *Drop, table *accounts.Table, opts ...Option) *Simulator {
	s := &Simulator{
		drop:     drop,
		table:    table,
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates every client in order, then persists the transactions and
// the relabeled account table. A cancelled context stops the run between
// drops; nothing is persisted in that case.
func (s *Simulator) Run(ctx context.Context, clients []model.Client) (Result, error) {
	res := Result{Role: s.drop.Role}
	log := s.logger.With(zap.String("role", string(s.drop.Role)))

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		s.drop.Bind(client)
		txns, batches, err := s.drop.Run()
		s.drop.Reset()
		if err != nil {
			return res, fmt.Errorf("simulating drop %d: %w", client.ID, err)
		}

		declined := 0
		for _, t := range txns {
			if t.Declined() {
				declined++
			}
		}
		log.Debug("drop simulated",
			zap.Int64("client_id", client.ID),
			zap.Int("transactions", len(txns)),
			zap.Int("batches", batches),
			zap.Int("declined", declined),
		)
		s.observer.ObserveDrop(s.drop.Role, txns, batches)

		res.Drops++
		res.Batches += batches
		res.Declined += declined
		res.Transactions = append(res.Transactions, txns...)
	}

	for _, r := range s.recorders {
		if err := r.RecordTransactions(ctx, s.drop.Role, res.Transactions); err != nil {
			return res, fmt.Errorf("recording transactions: %w", err)
		}
		if err := r.RecordAccounts(ctx, s.table.All()); err != nil {
			return res, fmt.Errorf("recording accounts: %w", err)
		}
	}

	log.Info("simulation finished",
		zap.Int("drops", res.Drops),
		zap.Int("transactions", len(res.Transactions)),
		zap.Int("declined", res.Declined),
	)
	return res, nil
}

// SelectClients samples n clients without replacement, skipping excluded
// clients and clients without an account in table.
func SelectClients(rng *rand.Rand, clients []model.Client, table *accounts.Table, n int, exclude map[int64]bool) []model.Client {
	var pool []model.Client
	for _, c := range clients {
		if exclude[c.ID] {
			continue
		}
		if _, ok := table.AccountOf(c.ID); !ok {
			continue
		}
		pool = append(pool, c)
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}
