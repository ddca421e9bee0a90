// Package catalog keeps a SQLite index of completed recording episodes so
// operators can review a deployment without opening every episode file.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starterbench/crankdaq/pkg/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	file         TEXT NOT NULL,
	start_usec   INTEGER NOT NULL,
	end_usec     INTEGER NOT NULL,
	records      INTEGER NOT NULL,
	bytes        INTEGER NOT NULL,
	overflows    INTEGER NOT NULL,
	bus_faults   INTEGER NOT NULL,
	recorded_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Entry is one cataloged episode.
type Entry struct {
	ID         int64
	File       string
	StartUsec  uint32
	EndUsec    uint32
	Records    uint64
	Bytes      int
	Overflows  uint64
	BusFaults  uint64
	RecordedAt time.Time
}

// Catalog wraps the episode index database.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path. Use
// ":memory:" for an ephemeral catalog in tests.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: initialize schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record inserts one completed episode.
func (c *Catalog) Record(ep session.Episode) error {
	_, err := c.db.Exec(
		`INSERT INTO episodes (file, start_usec, end_usec, records, bytes, overflows, bus_faults)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ep.File, int64(ep.StartMicros), int64(ep.EndMicros),
		int64(ep.Records), ep.Bytes, int64(ep.Overflows), int64(ep.BusFaults),
	)
	if err != nil {
		return fmt.Errorf("catalog: record episode: %w", err)
	}
	return nil
}

// List returns all cataloged episodes, oldest first.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(
		`SELECT id, file, start_usec, end_usec, records, bytes, overflows, bus_faults, recorded_at
		 FROM episodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list episodes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var start, end, records, overflows, busFaults int64
		if err := rows.Scan(&e.ID, &e.File, &start, &end, &records, &e.Bytes, &overflows, &busFaults, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan episode: %w", err)
		}
		e.StartUsec = uint32(start)
		e.EndUsec = uint32(end)
		e.Records = uint64(records)
		e.Overflows = uint64(overflows)
		e.BusFaults = uint64(busFaults)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate episodes: %w", err)
	}
	return entries, nil
}
