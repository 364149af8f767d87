// Package store keeps saved engine snapshots in a SQLite database, one row
// per save.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/sheikhrachel/go-conway/model"
)

// ErrNotFound is returned when no save has the requested id
var ErrNotFound = errors.New("save not found")

const schema = `
CREATE TABLE IF NOT EXISTS saves(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	size INTEGER NOT NULL,
	generation INTEGER NOT NULL,
	living_count INTEGER NOT NULL,
	state TEXT NOT NULL
)`

// Record describes one save without its grid contents
type Record struct {
	ID          int64
	Name        string
	CreatedAt   time.Time
	Size        int
	Generation  int
	LivingCount int
}

// Store is a SQLite backed collection of saves
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and makes sure the schema exists
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "[Open] failed to open database: %+v", path)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "[Open] failed to create schema: %+v", path)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a snapshot under name and returns the id of the new save
func (s *Store) Save(ctx context.Context, name string, snap model.Snapshot) (int64, error) {
	state, err := json.Marshal(snap)
	if err != nil {
		return 0, errors.Wrap(err, "[Save] failed to marshal snapshot")
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO saves(name, created_at, size, generation, living_count, state) VALUES(?,?,?,?,?,?)",
		name, s.now().UnixMilli(), snap.Size, snap.Generation, snap.LivingCount, string(state))
	if err != nil {
		return 0, errors.Wrapf(err, "[Save] failed to insert save: %+v", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "[Save] failed to read save id")
	}
	return id, nil
}

// Load returns the snapshot stored under id. A row whose state cannot be
// decoded fails with model.ErrMalformedState.
func (s *Store) Load(ctx context.Context, id int64) (model.Snapshot, error) {
	var (
		snap  model.Snapshot
		state string
	)
	err := s.db.QueryRowContext(ctx, "SELECT state FROM saves WHERE id = ?", id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, errors.Wrapf(ErrNotFound, "[Load] id %d", id)
	}
	if err != nil {
		return snap, errors.Wrapf(err, "[Load] failed to query save %d", id)
	}
	if err = json.Unmarshal([]byte(state), &snap); err != nil {
		return snap, errors.Wrapf(model.ErrMalformedState, "[Load] save %d: %v", id, err)
	}
	return snap, nil
}

// List returns every save, newest first
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, size, generation, living_count FROM saves ORDER BY id DESC")
	if err != nil {
		return nil, errors.Wrap(err, "[List] failed to query saves")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			created int64
		)
		if err = rows.Scan(&r.ID, &r.Name, &created, &r.Size, &r.Generation, &r.LivingCount); err != nil {
			return nil, errors.Wrap(err, "[List] failed to scan save")
		}
		r.CreatedAt = time.UnixMilli(created)
		records = append(records, r)
	}
	return records, errors.Wrap(rows.Err(), "[List]")
}

// Delete removes the save with the given id
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM saves WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "[Delete] failed to delete save %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "[Delete] failed to read affected rows for save %d", id)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "[Delete] id %d", id)
	}
	return nil
}
