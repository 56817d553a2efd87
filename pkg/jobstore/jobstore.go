// Package jobstore keeps a go.etcd.io/bbolt-backed manifest of what the
// coordinator has written to the jobs root: which job directories it has
// created, and which input files / executable it has accepted uploads
// for. It exists purely to let startup detect a jobs root that drifted
// from the manifest (a crash mid-upload, a disk wiped out from under the
// process) before the directory tree is rebuilt from scratch. One
// bucket, JSON-marshaled records keyed by job id.
package jobstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
)

var bucketJobs = []byte("jobs")

// Manifest is the on-disk record of one job's uploaded artifacts.
type Manifest struct {
	JobID      string   `json:"job_id"`
	Files      []string `json:"files"`
	Executable string   `json:"executable,omitempty"`
	CreatedTS  int64    `json:"created_ts"`
}

// Store wraps a bbolt database holding the "jobs" bucket.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the manifest database at dbPath,
// ensuring the jobs bucket exists.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating jobstore directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening jobstore %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketJobs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordJobCreated writes an empty manifest entry for a newly created
// job. It neither creates nor checks the job's directory on disk.
func (s *Store) RecordJobCreated(jobID string, createdTS int64) error {
	return s.put(Manifest{JobID: jobID, CreatedTS: createdTS})
}

// RecordFileUploaded appends filename to a job's manifest entry.
func (s *Store) RecordFileUploaded(jobID, filename string) error {
	m, ok, err := s.Get(jobID)
	if err != nil {
		return err
	}
	if !ok {
		m = Manifest{JobID: jobID}
	}
	m.Files = append(m.Files, filename)
	return s.put(m)
}

// RecordExecutableUploaded records the driver program filename for a
// job's manifest entry.
func (s *Store) RecordExecutableUploaded(jobID, filename string) error {
	m, ok, err := s.Get(jobID)
	if err != nil {
		return err
	}
	if !ok {
		m = Manifest{JobID: jobID}
	}
	m.Executable = filename
	return s.put(m)
}

func (s *Store) put(m Manifest) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return b.Put([]byte(m.JobID), data)
	})
}

// Get returns the manifest entry for jobID, if one exists.
func (s *Store) Get(jobID string) (Manifest, bool, error) {
	var m Manifest
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		data := b.Get([]byte(jobID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &m)
	})
	return m, found, err
}

// All returns every manifest entry currently recorded.
func (s *Store) All() ([]Manifest, error) {
	var out []Manifest
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		return b.ForEach(func(k, v []byte) error {
			var m Manifest
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			out = append(out, m)
			return nil
		})
	})
	return out, err
}

// Clear deletes and recreates the jobs bucket, discarding every
// manifest entry.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketJobs); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketJobs)
		return err
	})
}

// ReconcileAndWipe implements the startup sequence: before the jobs
// root is rebuilt from scratch, any manifest entry whose recorded
// files no longer exist on disk is logged at warn level (it describes
// state from a previous, possibly crashed, run), then the manifest and
// the jobs root directory tree are both cleared so the coordinator
// starts from a known-empty state.
func (s *Store) ReconcileAndWipe(jobsRoot string) error {
	entries, err := s.All()
	if err != nil {
		return fmt.Errorf("reading jobstore manifest: %w", err)
	}

	for _, m := range entries {
		reconcileLogger := log.WithJobID(atoiOr(m.JobID))
		jobDir := filepath.Join(jobsRoot, m.JobID)
		for _, f := range m.Files {
			path := filepath.Join(jobDir, "files", f)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				reconcileLogger.Warn().Str("path", path).Msg("manifest references missing input file")
			}
		}
		if m.Executable != "" {
			path := filepath.Join(jobDir, "executable", m.Executable)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				reconcileLogger.Warn().Str("path", path).Msg("manifest references missing executable")
			}
		}
	}

	if err := os.RemoveAll(jobsRoot); err != nil {
		return fmt.Errorf("wiping jobs root %s: %w", jobsRoot, err)
	}
	if err := os.MkdirAll(jobsRoot, 0o755); err != nil {
		return fmt.Errorf("recreating jobs root %s: %w", jobsRoot, err)
	}
	return s.Clear()
}

func atoiOr(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
