package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Record stores a received submission keyed by its submission id.
// Payloads without an id get a fresh one so they are never overwritten.
func (s *Store) Record(ctx context.Context, sub survey.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := sub.SubmissionID
	if key == "" {
		key = "anon-" + uuid.NewString()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSubmissions)
		if err != nil {
			return err
		}
		rec := ports.StoredSubmission{Key: key}
		if v := b.Get([]byte(key)); v != nil {
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal submission %s: %w", key, err)
			}
		}
		rec.Submission = sub
		rec.ReceivedAt = s.now().Unix()
		rec.Attempts++
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal submission: %w", err)
		}
		return b.Put([]byte(key), data)
	})
}

// All returns every stored submission, most recent first.
func (s *Store) All(ctx context.Context) ([]ports.StoredSubmission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []ports.StoredSubmission
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSubmissions)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec ports.StoredSubmission
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal submission %s: %w", k, err)
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt > out[j].ReceivedAt
	})
	return out, nil
}

// Counts returns group → assignment count for a stratum.
func (s *Store) Counts(stratum string) (map[int]int, error) {
	counts := make(map[int]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAllocations)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(stratum))
		if v == nil {
			return nil
		}
		return decodeCounts(v, counts)
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Increment adds one assignment of group to stratum.
func (s *Store) Increment(stratum string, group int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketAllocations)
		if err != nil {
			return err
		}
		counts := make(map[int]int)
		if v := b.Get([]byte(stratum)); v != nil {
			if err := decodeCounts(v, counts); err != nil {
				return err
			}
		}
		counts[group]++
		data, err := encodeCounts(counts)
		if err != nil {
			return err
		}
		return b.Put([]byte(stratum), data)
	})
}

// Counts are stored as a JSON object keyed by decimal group id.
func encodeCounts(counts map[int]int) ([]byte, error) {
	data, err := json.Marshal(counts)
	if err != nil {
		return nil, fmt.Errorf("marshal counts: %w", err)
	}
	return data, nil
}

func decodeCounts(data []byte, into map[int]int) error {
	if err := json.Unmarshal(data, &into); err != nil {
		return fmt.Errorf("unmarshal counts: %w", err)
	}
	return nil
}
