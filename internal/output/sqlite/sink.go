// Package sqlite keeps a local database of build results, handy for ad-hoc
// queries over several runs without a server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	dataset      TEXT NOT NULL,
	category     TEXT NOT NULL,
	caption_type TEXT NOT NULL,
	seed         INTEGER NOT NULL,
	summary      TEXT NOT NULL,
	created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
	run_id   TEXT NOT NULL,
	item_id  TEXT NOT NULL,
	split    TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (run_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_items_split ON items(run_id, split);

CREATE TABLE IF NOT EXISTS heldout_pairs (
	run_id   TEXT NOT NULL,
	pair_key TEXT NOT NULL,
	PRIMARY KEY (run_id, pair_key)
);

CREATE TABLE IF NOT EXISTS captions (
	run_id        TEXT NOT NULL,
	item_id       TEXT NOT NULL,
	caption_index INTEGER NOT NULL,
	text          TEXT NOT NULL,
	swapped_text  TEXT,
	noun          TEXT,
	original_adj  TEXT,
	new_adj       TEXT,
	heldout_pairs TEXT DEFAULT '',
	PRIMARY KEY (run_id, item_id, caption_index)
);
`

type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the database file and its schema if needed.
func Open(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.Newf(apperrors.ErrStorage, "creating sqlite directory: %v", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrStorage, "opening sqlite %s: %v", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.Newf(apperrors.ErrStorage, "creating sqlite schema: %v", err)
	}
	return &Sink{
		db:     db,
		logger: slog.Default().With("component", "sqlite-sink", "path", path),
	}, nil
}

func (s *Sink) Name() string { return "sqlite" }

// DB exposes the handle for queries.
func (s *Sink) DB() *sql.DB { return s.db }

func (s *Sink) Save(ctx context.Context, res *output.Result) error {
	if err := s.save(ctx, res); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "saving run %s: %v", res.Run.ID, err)
	}
	s.logger.Info("run stored", "run_id", res.Run.ID)
	return nil
}

func (s *Sink) save(ctx context.Context, res *output.Result) error {
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"runs", "items", "heldout_pairs", "captions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, res.Run.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, dataset, category, caption_type, seed, summary) VALUES (?, ?, ?, ?, ?, ?)`,
		res.Run.ID, res.Run.Dataset, res.Run.Category, res.Run.CaptionType, int64(res.Run.Seed), string(summary),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	itemStmt, err := tx.PrepareContext(ctx, `INSERT INTO items (run_id, item_id, split, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer itemStmt.Close()
	for split, ids := range map[string][]string{
		"train":       res.Split.Train,
		"test_seen":   res.Split.TestSeen,
		"test_unseen": res.Split.TestUnseen,
	} {
		for i, id := range ids {
			if _, err := itemStmt.ExecContext(ctx, res.Run.ID, id, split, i); err != nil {
				return fmt.Errorf("inserting item %s: %w", id, err)
			}
		}
	}

	for _, key := range res.Split.HeldoutPairs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO heldout_pairs (run_id, pair_key) VALUES (?, ?)`, res.Run.ID, key); err != nil {
			return fmt.Errorf("inserting heldout pair %s: %w", key, err)
		}
	}

	capStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO captions (run_id, item_id, caption_index, text, swapped_text, noun, original_adj, new_adj, heldout_pairs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer capStmt.Close()
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
			heldout, err := json.Marshal(rec.HeldoutPairs)
			if err != nil {
				return err
			}
			if _, err := capStmt.ExecContext(ctx, res.Run.ID, id, ir.Index, rec.Text, swapped, noun, orig, newAdj, string(heldout)); err != nil {
				return fmt.Errorf("inserting caption %s/%d: %w", id, ir.Index, err)
			}
		}
	}
	return tx.Commit()
}

// SplitCounts returns the number of items per split for a run.
func (s *Sink) SplitCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT split, COUNT(*) FROM items WHERE run_id = ? GROUP BY split`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var split string
		var n int
		if err := rows.Scan(&split, &n); err != nil {
			return nil, err
		}
		out[split] = n
	}
	return out, rows.Err()
}

func (s *Sink) Close() error {
	return s.db.Close()
}
