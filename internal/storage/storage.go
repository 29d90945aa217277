package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Key prefixes. Analysis records are keyed by position hash, sessions
// by their UUID.
const (
	prefixAnalysis = "analysis/"
	prefixSession  = "session/"
)

// ErrNotFound reports a cache miss. Callers treating the store as
// best-effort check for it with errors.Is and move on.
var ErrNotFound = errors.New("storage: record not found")

// AnalysisRecord is one cached search result. Records are advisory: a
// caller may only reuse one whose Depth covers the depth it wants, and
// never feeds it back into a running search.
type AnalysisRecord struct {
	FEN       string        `json:"fen"`
	Depth     int           `json:"depth"`
	Score     int           `json:"score"`
	BestMove  string        `json:"best_move"`
	PV        []string      `json:"pv,omitempty"`
	Nodes     uint64        `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	Version   string        `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
}

// SessionRecord summarizes one bench or analysis run.
type SessionRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Positions  int       `json:"positions"`
	Nodes      uint64    `json:"nodes"`
	Notes      string    `json:"notes,omitempty"`
}

// NewSession starts a session record of the given kind with a fresh ID.
func NewSession(kind string) *SessionRecord {
	return &SessionRecord{
		ID:        uuid.New().String(),
		Kind:      kind,
		StartedAt: time.Now(),
	}
}

// Store wraps BadgerDB for persistent storage.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the store rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Badger's own logging is noise here

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenDefault opens the store in the per-platform data directory.
func OpenDefault() (*Store, error) {
	dbDir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func analysisKey(hash uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", prefixAnalysis, hash))
}

// SaveAnalysis stores rec under the position hash, stamping CreatedAt
// if the caller left it zero.
func (s *Store) SaveAnalysis(hash uint64, rec *AnalysisRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(analysisKey(hash), data)
	})
}

// LoadAnalysis fetches the cached record for the position hash, or
// ErrNotFound on a miss.
func (s *Store) LoadAnalysis(hash uint64) (*AnalysisRecord, error) {
	rec := &AnalysisRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(hash))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// SaveSession stores the session record under its ID.
func (s *Store) SaveSession(rec *SessionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixSession+rec.ID), data)
	})
}

// LoadSession fetches one session by ID, or ErrNotFound.
func (s *Store) LoadSession(id string) (*SessionRecord, error) {
	rec := &SessionRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixSession + id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListSessions returns all stored sessions, most recent first.
func (s *Store) ListSessions() ([]*SessionRecord, error) {
	var sessions []*SessionRecord

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixSession)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rec := &SessionRecord{}
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			})
			if err != nil {
				return err
			}
			sessions = append(sessions, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}
