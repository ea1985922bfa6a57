package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("dunder.snapshot")

// ErrNotFound indicates the requested snapshot label doesn't exist.
var ErrNotFound = errors.New("snapshot not found")

// Entry describes a stored snapshot.
type Entry struct {
	Label   string
	Key     string
	Classes int
	Created time.Time
}

// Store keeps labelled snapshots in a SQLite database. Snapshot bytes are
// stored alongside their content key, which is checked on every read.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) a snapshot store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		label   TEXT PRIMARY KEY,
		key     TEXT NOT NULL,
		classes INTEGER NOT NULL,
		created INTEGER NOT NULL,
		data    BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores snap under label, replacing any previous snapshot with that
// label, and returns its content key.
func (s *Store) Put(label string, snap *Snapshot) (string, error) {
	data, err := Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	key := ContentKey(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (label, key, classes, created, data) VALUES (?, ?, ?, ?, ?)",
		label, key, len(snap.Classes), time.Now().Unix(), data,
	)
	if err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	log.Debugf("stored snapshot %s (%s, %d classes)", label, key, len(snap.Classes))
	return key, nil
}

// Get loads the snapshot stored under label.
func (s *Store) Get(label string) (*Snapshot, error) {
	var key string
	var data []byte
	err := s.db.QueryRow("SELECT key, data FROM snapshots WHERE label = ?", label).Scan(&key, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, label)
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	if got := ContentKey(data); got != key {
		return nil, fmt.Errorf("snapshot %s is corrupt: key %s, content hashes to %s", label, key, got)
	}
	return Unmarshal(data)
}

// Delete removes the snapshot stored under label.
func (s *Store) Delete(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM snapshots WHERE label = ?", label)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, label)
	}
	return nil
}

// List returns the stored snapshots ordered by label.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT label, key, classes, created FROM snapshots ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Label, &e.Key, &e.Classes, &created); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		e.Created = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
