// Package bbolt implements the storage ports using bbolt (embedded B+ tree).
// The respondent's session lives in the "session" bucket under one fixed key.
// The collection server keeps received submissions and per-stratum
// allocation counts in their own buckets of a separate database file.
// Values are JSON. Writes are transactional; a crash mid-write cannot
// corrupt previously committed data.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corey/survey/internal/domain/survey"
	bolt "go.etcd.io/bbolt"
)

// SessionKey is the fixed key the respondent's session is stored under.
const SessionKey = "urban_survey_state_v1"

// Bucket keys
var (
	bucketSession     = []byte("session")
	bucketSubmissions = []byte("submissions")
	bucketAllocations = []byte("allocations")
	keySession        = []byte(SessionKey)
)

// Store implements ports.SessionStore, ports.SubmissionSink and
// ports.AllocationLedger backed by bbolt.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// SaveSession persists the session, overwriting any prior one.
func (s *Store) SaveSession(sess *survey.Session) error {
	if sess == nil {
		return fmt.Errorf("nil session")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSession)
		if err != nil {
			return err
		}
		return b.Put(keySession, data)
	})
}

// LoadSession retrieves the persisted session.
// Returns nil, nil if no session is stored.
func (s *Store) LoadSession() (*survey.Session, error) {
	data, err := s.get(bucketSession, keySession)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var sess survey.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// ClearSession removes the persisted session.
// Idempotent: clearing when nothing is stored is not an error.
func (s *Store) ClearSession() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return nil
		}
		return b.Delete(keySession)
	})
}

// get copies a value out of a read transaction (bbolt slices are only valid
// within the tx). Returns nil when the bucket or key is missing.
func (s *Store) get(bucket, key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	return out, err
}

// IsLockTimeout reports whether err came from failing to acquire the file
// lock, i.e. another process holds the database open.
func IsLockTimeout(err error) bool {
	return errors.Is(err, bolt.ErrTimeout)
}
