// Package postgres stores build results in PostgreSQL. Each run owns its
// rows; saving a run id again replaces them.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	pkgpg "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/postgres"
	"github.com/lib/pq"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS split_runs (
		run_id       TEXT PRIMARY KEY,
		dataset      TEXT NOT NULL,
		category     TEXT NOT NULL,
		caption_type TEXT NOT NULL,
		seed         BIGINT NOT NULL,
		summary      JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS split_items (
		run_id   TEXT NOT NULL REFERENCES split_runs(run_id) ON DELETE CASCADE,
		item_id  TEXT NOT NULL,
		split    TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (run_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS split_heldout_pairs (
		run_id   TEXT NOT NULL REFERENCES split_runs(run_id) ON DELETE CASCADE,
		pair_key TEXT NOT NULL,
		PRIMARY KEY (run_id, pair_key)
	)`,
	`CREATE TABLE IF NOT EXISTS split_captions (
		run_id        TEXT NOT NULL REFERENCES split_runs(run_id) ON DELETE CASCADE,
		item_id       TEXT NOT NULL,
		caption_index INTEGER NOT NULL,
		text          TEXT NOT NULL,
		swapped_text  TEXT,
		noun          TEXT,
		original_adj  TEXT,
		new_adj       TEXT,
		heldout_pairs TEXT[],
		PRIMARY KEY (run_id, item_id, caption_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_split_items_split ON split_items(run_id, split)`,
}

type Sink struct {
	client *pkgpg.Client
	logger *slog.Logger
}

// New migrates the schema on client.
func New(ctx context.Context, client *pkgpg.Client) (*Sink, error) {
	if err := client.Migrate(ctx, schema...); err != nil {
		return nil, apperrors.Newf(apperrors.ErrStorage, "migrating postgres schema: %v", err)
	}
	return &Sink{
		client: client,
		logger: slog.Default().With("component", "postgres-sink"),
	}, nil
}

func (s *Sink) Name() string { return "postgres" }

func (s *Sink) Save(ctx context.Context, res *output.Result) error {
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	captions := 0
	err = s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM split_runs WHERE run_id = $1`, res.Run.ID); err != nil {
			return fmt.Errorf("clearing previous run: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO split_runs (run_id, dataset, category, caption_type, seed, summary)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			res.Run.ID, res.Run.Dataset, res.Run.Category, res.Run.CaptionType, int64(res.Run.Seed), summary,
		)
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}
		if err := copyItems(ctx, tx, res); err != nil {
			return err
		}
		if err := copyRows(ctx, tx, "split_heldout_pairs", []string{"run_id", "pair_key"}, func(emit func(...any) error) error {
			for _, key := range res.Split.HeldoutPairs {
				if err := emit(res.Run.ID, key); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
		captions, err = copyCaptions(ctx, tx, res)
		return err
	})
	if err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "saving run %s: %v", res.Run.ID, err)
	}
	s.logger.Info("run stored", "run_id", res.Run.ID, "captions", captions)
	return nil
}

func copyItems(ctx context.Context, tx *sql.Tx, res *output.Result) error {
	cols := []string{"run_id", "item_id", "split", "position"}
	return copyRows(ctx, tx, "split_items", cols, func(emit func(...any) error) error {
		for _, part := range []struct {
			name string
			ids  []string
		}{
			{"train", res.Split.Train},
			{"test_seen", res.Split.TestSeen},
			{"test_unseen", res.Split.TestUnseen},
		} {
			for i, id := range part.ids {
				if err := emit(res.Run.ID, id, part.name, i); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func copyCaptions(ctx context.Context, tx *sql.Tx, res *output.Result) (int, error) {
	cols := []string{"run_id", "item_id", "caption_index", "text", "swapped_text", "noun", "original_adj", "new_adj", "heldout_pairs"}
	n := 0
	err := copyRows(ctx, tx, "split_captions", cols, func(emit func(...any) error) error {
		for _, id := range res.Records.ItemIDs() {
			for _, ir := range res.Records.Item(id) {
				rec := ir.Record
				var swapped, noun, orig, newAdj sql.NullString
				if rec.SwappedText != nil {
					swapped = sql.NullString{String: *rec.SwappedText, Valid: true}
				}
				if c := rec.ChangesMade; c != nil {
					noun = sql.NullString{String: c.Noun, Valid: true}
					orig = sql.NullString{String: c.OriginalAdj, Valid: true}
					newAdj = sql.NullString{String: c.NewAdj, Valid: true}
				}
				if err := emit(res.Run.ID, id, ir.Index, rec.Text, swapped, noun, orig, newAdj, pq.Array(rec.HeldoutPairs)); err != nil {
					return err
				}
				n++
			}
		}
		return nil
	})
	return n, err
}

// copyRows bulk loads a table with COPY FROM STDIN.
func copyRows(ctx context.Context, tx *sql.Tx, table string, cols []string, fill func(emit func(...any) error) error) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, cols...))
	if err != nil {
		return fmt.Errorf("preparing copy into %s: %w", table, err)
	}
	defer stmt.Close()
	emit := func(args ...any) error {
		_, err := stmt.ExecContext(ctx, args...)
		return err
	}
	if err := fill(emit); err != nil {
		return fmt.Errorf("copying into %s: %w", table, err)
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing copy into %s: %w", table, err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (s *Sink) Close() error { return nil }
