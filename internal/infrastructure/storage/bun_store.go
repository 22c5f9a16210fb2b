// Package storage is the bun/Postgres persistence adapter for the nine
// collections in §6: classrooms, store_types, stores, scenarios,
// scenario_outcomes, submissions, jobs, batches, ledger_entries. One
// BunStore implements every repository interface in
// internal/domain/repository; the models and their ToDomain/From mapper
// pairs live one file per collection alongside it.
package storage

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type BunStore struct {
	db *bun.DB
}

func NewBunStore(dsn string) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db}
}

// InitSchema creates every table if missing, then the partial unique
// indexes invariant 3 and the oracle batch id lookup need — bun's
// CreateTable has no notion of a partial index, so those are issued as raw
// statements alongside the CreateTable loop.
func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []interface{}{
		(*ClassroomModel)(nil),
		(*StoreTypeModel)(nil),
		(*StoreModel)(nil),
		(*ScenarioModel)(nil),
		(*ScenarioOutcomeModel)(nil),
		(*SubmissionModel)(nil),
		(*JobModel)(nil),
		(*BatchModel)(nil),
		(*LedgerEntryModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_scenario_user_uq
			ON ledger_entries (scenario_id, user_id) WHERE scenario_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_seed_classroom_user_uq
			ON ledger_entries (classroom_id, user_id) WHERE scenario_id IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS submissions_scenario_user_uq
			ON submissions (scenario_id, user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS batches_oracle_batch_id_uq
			ON batches (openai_batch_id) WHERE openai_batch_id != ''`,
		`CREATE INDEX IF NOT EXISTS jobs_status_scenario_created_idx
			ON jobs (state, scenario_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS ledger_entries_classroom_user_created_idx
			ON ledger_entries (classroom_id, user_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the database connection is reachable.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *BunStore) Close() error {
	return s.db.Close()
}
