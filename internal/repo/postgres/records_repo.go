package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itechteam/formdesk/internal/domain/submission"
	"github.com/itechteam/formdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS form_records (
	kind       TEXT        NOT NULL,
	position   INTEGER     NOT NULL,
	payload    JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, position)
)`

type RecordsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRecordsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RecordsRepo {
	return &RecordsRepo{pool: pool, prom: prom}
}

func (r *RecordsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (r *RecordsRepo) EnsureSchema(ctx context.Context) error {
	return r.observe("schema.ensure", func() error {
		_, err := r.pool.Exec(ctx, schemaSQL)
		return err
	})
}

func (r *RecordsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *RecordsRepo) LoadAll(ctx context.Context, kind submission.Kind) ([]json.RawMessage, error) {
	if !kind.IsValid() {
		return nil, submission.ErrUnknownKind
	}

	var records []json.RawMessage

	err := r.observe(string(kind)+".load_all", func() error {
		var err error
		records, err = loadTx(ctx, r.pool, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SaveAll replaces the kind's rows inside one transaction.
func (r *RecordsRepo) SaveAll(ctx context.Context, kind submission.Kind, records []json.RawMessage) error {
	if !kind.IsValid() {
		return submission.ErrUnknownKind
	}

	return r.observe(string(kind)+".save_all", func() error {
		return r.inLockedTx(ctx, kind, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `DELETE FROM form_records WHERE kind = $1`, string(kind)); err != nil {
				return fmt.Errorf("clear %s: %w", kind, err)
			}

			rows := make([][]any, len(records))
			for i, rec := range records {
				rows[i] = []any{string(kind), i, []byte(rec)}
			}

			_, err := tx.CopyFrom(ctx,
				pgx.Identifier{"form_records"},
				[]string{"kind", "position", "payload"},
				pgx.CopyFromRows(rows),
			)
			if err != nil {
				return fmt.Errorf("copy %s: %w", kind, err)
			}
			return nil
		})
	})
}

// AppendWith holds the kind's advisory lock for the whole load-build-insert,
// so concurrent API processes cannot lose each other's records.
func (r *RecordsRepo) AppendWith(ctx context.Context, kind submission.Kind, build func(existing []json.RawMessage) (json.RawMessage, error)) error {
	if !kind.IsValid() {
		return submission.ErrUnknownKind
	}

	return r.observe(string(kind)+".append", func() error {
		return r.inLockedTx(ctx, kind, func(tx pgx.Tx) error {
			existing, err := loadTx(ctx, tx, kind)
			if err != nil {
				return err
			}

			rec, err := build(existing)
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO form_records (kind, position, payload)
				SELECT $1::text, COALESCE(MAX(position) + 1, 0), $2::jsonb
				FROM form_records WHERE kind = $1`,
				string(kind), []byte(rec),
			)
			if err != nil {
				return fmt.Errorf("insert %s: %w", kind, err)
			}
			return nil
		})
	})
}

func (r *RecordsRepo) inLockedTx(ctx context.Context, kind submission.Kind, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "form_records:"+string(kind)); err != nil {
		return fmt.Errorf("lock %s: %w", kind, err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadTx(ctx context.Context, q querier, kind submission.Kind) ([]json.RawMessage, error) {
	rows, err := q.Query(ctx, `SELECT payload FROM form_records WHERE kind = $1 ORDER BY position`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		records = append(records, json.RawMessage(payload))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	return records, nil
}
