// Package storage keeps a journal of emitted predictions in a BoltDB file.
// Only outcomes are recorded (value, provenance, failure kind, artifact
// version); request attributes are never stored.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions"

// Record is one journaled prediction outcome.
type Record struct {
	Timestamp       time.Time `json:"timestamp"`
	Variant         string    `json:"variant"`
	Value           float64   `json:"value"`
	Source          string    `json:"source"`
	Kind            string    `json:"kind,omitempty"`
	Stage           string    `json:"stage,omitempty"`
	ArtifactVersion string    `json:"artifact_version,omitempty"`
	DurationMS      float64   `json:"duration_ms"`
}

// Journal is an append-only prediction log.
type Journal struct {
	db *bbolt.DB
}

// Open opens or creates the journal file at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Append stores rec keyed by variant and timestamp.
func (j *Journal) Append(rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return b.Put(recordKey(rec.Variant, rec.Timestamp, seq), data)
	})
}

// Recent returns up to limit records, newest first. An empty variant
// matches every variant; a non-positive limit returns everything.
func (j *Journal) Recent(variant string, limit int) ([]Record, error) {
	var records []Record

	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		var prefix []byte
		if variant != "" {
			prefix = []byte(variant + "_")
		}

		for k, v := c.Seek(prefix); k != nil; k, v = c.Next() {
			if prefix != nil && !bytes.HasPrefix(k, prefix) {
				break
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Timestamp.After(records[b].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Keys sort by timestamp within a variant; the sequence breaks ties.
func recordKey(variant string, ts time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s_%020d_%010d", variant, ts.UnixNano(), seq))
}
