// Package store implements the retired-player sink from spec.md §4.9
// (C9): one row per retired dog, plus the fixed-order leaderboard query.
// github.com/lib/pq is adopted from the retrieval pack's
// jacobpatterson1549/selene-bananas go.mod — the only repo in the pack
// pairing a Postgres driver with database/sql — since the teacher itself
// has no relational store at all. Query shape and error wrapping follow
// the teacher's plain database/sql-and-fmt.Errorf idiom used elsewhere
// in this repo (persistence, config).
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/nkazantsev/streetdogs/game/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS retired_players (
	id serial PRIMARY KEY,
	name varchar(100) NOT NULL,
	score integer NOT NULL,
	playtime double precision NOT NULL
);
CREATE INDEX IF NOT EXISTS retired_players_score_idx ON retired_players (score);
CREATE INDEX IF NOT EXISTS retired_players_playtime_idx ON retired_players (playtime);
CREATE INDEX IF NOT EXISTS retired_players_name_idx ON retired_players (name);
`

// Store is a Postgres-backed retired-player sink.
type Store struct {
	db *sql.DB
}

// Open connects to dbURL and ensures the retired_players table and its
// indices exist. An unreachable database at startup is fatal per
// spec.md §7 — callers should treat a non-nil error here as such.
func Open(dbURL string) (*Store, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure retired_players schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes one row per stat inside a single transaction. Per spec.md
// §7, a failure here is logged and the batch is dropped — the live-state
// snapshot remains authoritative either way — so Save returns an error
// for the caller to log rather than panicking or retrying.
func (s *Store) Save(stats []model.SaveStat) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO retired_players (name, score, playtime) VALUES ($1, $2, $3)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, stat := range stats {
		if _, err := stmt.Exec(stat.Name, stat.Score, float64(stat.PlaytimeMs)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert retired player %q: %w", stat.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit retired players: %w", err)
	}
	return nil
}

// Record is one leaderboard row.
type Record struct {
	Name     string
	Score    uint64
	Playtime float64
}

// Records returns up to maxItems leaderboard rows starting at offset
// start, ordered score DESC, playtime ASC, name ASC — spec.md §4.9's
// fixed tie-break order.
func (s *Store) Records(start, maxItems int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT name, score, playtime FROM retired_players ORDER BY score DESC, playtime ASC, name ASC LIMIT $1 OFFSET $2`,
		maxItems, start,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var score int64
		if err := rows.Scan(&r.Name, &score, &r.Playtime); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		r.Score = uint64(score)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return out, nil
}
