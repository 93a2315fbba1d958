// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/syndicate/internal/metrics"
	"github.com/tomtom215/syndicate/internal/models"
)

// Key prefixes for BadgerDB storage.
//
// Document:  job:<id>                                              -> JSON
// Due index: due:<scheduledAt>:<id>                                -> id  (pending only)
// Processing index: proc:<updatedAt>:<id>                          -> id  (processing only)
// History index: hist:<user>:<platform>:<channel>:<executedAt>:<id> -> id (posted only)
// User index: user:<user>:<createdAt>:<id>                         -> id
//
// Timestamps are zero-padded decimal UnixNano so lexicographic key order is
// chronological order.
const (
	jobKeyPrefix  = "job:"
	dueKeyPrefix  = "due:"
	procKeyPrefix = "proc:"
	histKeyPrefix = "hist:"
	userKeyPrefix = "user:"
)

// BadgerStore implements JobStore using BadgerDB for durable storage.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) a Badger-backed job store at path.
// When inMemory is true, path is ignored and nothing is persisted.
func Open(path string, inMemory bool) (*BadgerStore, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an existing Badger database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// DB exposes the underlying database so other stores (accounts) can share
// one Badger instance.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Ping verifies the store is usable.
func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("store is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// RunGC runs one round of Badger value-log garbage collection.
// Returns badger.ErrNoRewrite when there was nothing to collect; callers
// should treat that as success.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// padNano formats a timestamp for use inside index keys.
func padNano(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}

// indexKeys returns the secondary index keys for a job in its current state.
// The due, processing, and history indexes are status-conditional; the user
// index always exists.
func indexKeys(job *models.Job) [][]byte {
	keys := [][]byte{
		[]byte(userKeyPrefix + job.UserID + ":" + padNano(job.CreatedAt) + ":" + job.ID),
	}

	switch job.Status {
	case models.StatusPending:
		keys = append(keys, []byte(dueKeyPrefix+padNano(job.ScheduledAt)+":"+job.ID))
	case models.StatusProcessing:
		keys = append(keys, []byte(procKeyPrefix+padNano(job.UpdatedAt)+":"+job.ID))
	case models.StatusPosted:
		if job.ExecutedAt != nil {
			keys = append(keys, []byte(histKeyPrefix+job.UserID+":"+string(job.Platform)+":"+job.ChannelID+":"+padNano(*job.ExecutedAt)+":"+job.ID))
		}
	case models.StatusFailed:
		// Terminal failures are reachable through the user index only.
	}

	return keys
}

// CreateJobs inserts a batch of jobs in a single transaction.
func (s *BadgerStore) CreateJobs(ctx context.Context, jobs []*models.Job) error {
	if len(jobs) == 0 {
		return ErrNoJobs
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, job := range jobs {
			if err := putJob(txn, job); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.RecordStoreOperation("create_jobs", err)
	return err
}

// putJob writes the job document and its index entries.
func putJob(txn *badger.Txn, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	if err := txn.Set([]byte(jobKeyPrefix+job.ID), data); err != nil {
		return fmt.Errorf("set job %s: %w", job.ID, err)
	}
	for _, key := range indexKeys(job) {
		if err := txn.Set(key, []byte(job.ID)); err != nil {
			return fmt.Errorf("set index for job %s: %w", job.ID, err)
		}
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *BadgerStore) GetJob(_ context.Context, id string) (*models.Job, error) {
	var job models.Job

	err := s.db.View(func(txn *badger.Txn) error {
		return getJob(txn, id, &job)
	})
	metrics.RecordStoreOperation("get_job", err)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// getJob reads one job document within a transaction.
func getJob(txn *badger.Txn, id string, out *models.Job) error {
	item, err := txn.Get([]byte(jobKeyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("get job %s: %w", id, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// UpdateJob replaces the stored document and reindexes it.
func (s *BadgerStore) UpdateJob(_ context.Context, job *models.Job) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var old models.Job
		if err := getJob(txn, job.ID, &old); err != nil {
			return err
		}

		// Drop stale index entries before writing the new state.
		for _, key := range indexKeys(&old) {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete index for job %s: %w", job.ID, err)
			}
		}

		return putJob(txn, job)
	})
	metrics.RecordStoreOperation("update_job", err)
	return err
}

// ListDue returns up to limit pending jobs with ScheduledAt <= now, ordered
// by ScheduledAt ascending.
func (s *BadgerStore) ListDue(_ context.Context, now time.Time, limit int) ([]*models.Job, error) {
	var jobs []*models.Job
	cutoff := dueKeyPrefix + padNano(now)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(dueKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			// Timestamp segment greater than now means the job is not due yet.
			if key[:len(cutoff)] > cutoff {
				break
			}
			if limit > 0 && len(jobs) >= limit {
				break
			}

			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			var job models.Job
			if err := getJob(txn, id, &job); err != nil {
				return err
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	metrics.RecordStoreOperation("list_due", err)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// PostedSince returns posted jobs for one channel with ExecutedAt >= since,
// ordered by ExecutedAt ascending.
func (s *BadgerStore) PostedSince(_ context.Context, userID string, platform models.Platform, channelID string, since time.Time) ([]*models.Job, error) {
	var jobs []*models.Job
	prefix := []byte(histKeyPrefix + userID + ":" + string(platform) + ":" + channelID + ":")
	floor := append(append([]byte{}, prefix...), []byte(padNano(since))...)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(floor); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			var job models.Job
			if err := getJob(txn, id, &job); err != nil {
				return err
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	metrics.RecordStoreOperation("posted_since", err)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListByUser returns up to limit jobs for a user, newest first.
func (s *BadgerStore) ListByUser(_ context.Context, userID string, status models.JobStatus, limit int) ([]*models.Job, error) {
	var jobs []*models.Job
	prefix := []byte(userKeyPrefix + userID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the end of the prefix range.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.Valid() && bytes.HasPrefix(it.Item().Key(), prefix); it.Next() {
			if limit > 0 && len(jobs) >= limit {
				break
			}

			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			var job models.Job
			if err := getJob(txn, id, &job); err != nil {
				return err
			}
			if status != "" && job.Status != status {
				continue
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	metrics.RecordStoreOperation("list_by_user", err)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ProcessingOlderThan returns jobs that entered processing before cutoff.
func (s *BadgerStore) ProcessingOlderThan(_ context.Context, cutoff time.Time) ([]*models.Job, error) {
	var jobs []*models.Job
	limitKey := procKeyPrefix + padNano(cutoff)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(procKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if key[:len(limitKey)] >= limitKey {
				break
			}

			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			var job models.Job
			if err := getJob(txn, id, &job); err != nil {
				return err
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	metrics.RecordStoreOperation("processing_older_than", err)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// compile-time interface check
var _ JobStore = (*BadgerStore)(nil)
