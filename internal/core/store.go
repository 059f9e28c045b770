package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/roster/internal/logging"
)

// Blobs is the durable storage contract: three independently keyed blobs,
// each loaded whole and saved whole.
//
// Put must be all-or-nothing: either the new blob is durably stored or the
// previous one is still readable. Get returns ErrBlobNotFound for keys that
// were never written.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// LoadReport describes what Load restored.
type LoadReport struct {
	Numbers int
	Persons int
	Logs    int
	Reset   []Collection // Collections that fell back to empty
}

// Store holds the in-memory collections for one session.
// Reads are safe from any goroutine; writes go through the Service, which
// serializes them with its Gate.
type Store struct {
	blobs Blobs

	mu      sync.RWMutex
	numbers []NumberRecord
	persons []PersonRecord
	logs    []LogEntry

	// High-water marks: ids freed by deletion are not handed out again
	// during this session.
	maxNumberID int64
	maxPersonID int64
}

// NewStore creates an empty store backed by blobs.
func NewStore(blobs Blobs) *Store {
	return &Store{
		blobs:   blobs,
		numbers: []NumberRecord{},
		persons: []PersonRecord{},
		logs:    []LogEntry{},
	}
}

// Load restores all collections from durable storage.
//
// Load never fails: a collection whose blob is missing, unreadable, or
// violates the uniqueness invariants is replaced by an empty collection and
// reported in LoadReport.Reset.
func (s *Store) Load(ctx context.Context) LoadReport {
	logger := logging.FromContext(ctx)

	var report LoadReport
	numbers := loadCollection(ctx, s.blobs, CollectionNumbers, validateNumbers, &report)
	persons := loadCollection(ctx, s.blobs, CollectionPersons, validatePersons, &report)
	logs := loadCollection(ctx, s.blobs, CollectionLogs, validateLogs, &report)

	s.mu.Lock()
	s.numbers = numbers
	s.persons = persons
	s.logs = logs
	s.maxNumberID = maxNumberID(numbers)
	s.maxPersonID = maxPersonID(persons)
	s.mu.Unlock()

	report.Numbers = len(numbers)
	report.Persons = len(persons)
	report.Logs = len(logs)

	logger.Info("store loaded",
		"numbers", report.Numbers,
		"persons", report.Persons,
		"logs", report.Logs,
		"reset", report.Reset,
	)
	return report
}

// loadCollection decodes and validates one blob, falling back to empty.
func loadCollection[T any](ctx context.Context, blobs Blobs, c Collection, validate func([]T) error, report *LoadReport) []T {
	logger := logging.FromContext(ctx).With("collection", string(c))

	data, err := blobs.Get(ctx, string(c))
	if errors.Is(err, ErrBlobNotFound) {
		return []T{}
	}
	if err != nil {
		logger.Error("load failed, starting empty", "error", err)
		report.Reset = append(report.Reset, c)
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("stored data is not valid JSON, starting empty", "error", err)
		report.Reset = append(report.Reset, c)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	if err := validate(items); err != nil {
		logger.Warn("stored data failed validation, starting empty", "error", err)
		report.Reset = append(report.Reset, c)
		return []T{}
	}
	return items
}

// Save persists the current in-memory state of one collection.
// The returned error is a *PersistenceError.
func (s *Store) Save(ctx context.Context, c Collection) error {
	s.mu.RLock()
	var data []byte
	var err error
	switch c {
	case CollectionNumbers:
		data, err = json.Marshal(s.numbers)
	case CollectionPersons:
		data, err = json.Marshal(s.persons)
	case CollectionLogs:
		data, err = json.Marshal(s.logs)
	default:
		err = fmt.Errorf("unknown collection %q", c)
	}
	s.mu.RUnlock()

	if err != nil {
		return &PersistenceError{Collection: c, Err: err}
	}
	if err := s.blobs.Put(ctx, string(c), data); err != nil {
		return &PersistenceError{Collection: c, Err: err}
	}
	return nil
}

// Numbers returns a copy of the number collection in store order.
func (s *Store) Numbers() []NumberRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNumbers(s.numbers)
}

// Persons returns a copy of the person collection in store order.
func (s *Store) Persons() []PersonRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.persons)
}

// Logs returns a copy of the log collection, oldest first.
func (s *Store) Logs() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logs)
}

// Close releases the storage backend.
func (s *Store) Close() error {
	return s.blobs.Close()
}

// update runs fn with exclusive access to the collections.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// view runs fn with shared access to the collections.
func (s *Store) view(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// nextNumberID allocates the next number id. Caller must hold the write lock.
func (s *Store) nextNumberID() int64 {
	s.maxNumberID++
	return s.maxNumberID
}

// nextPersonID allocates the next person id. Caller must hold the write lock.
func (s *Store) nextPersonID() int64 {
	s.maxPersonID++
	return s.maxPersonID
}

// numberIndex returns the position of id, or -1. Caller must hold a lock.
func (s *Store) numberIndex(id int64) int {
	return slices.IndexFunc(s.numbers, func(n NumberRecord) bool { return n.ID == id })
}

// personIndex returns the position of id, or -1. Caller must hold a lock.
func (s *Store) personIndex(id int64) int {
	return slices.IndexFunc(s.persons, func(p PersonRecord) bool { return p.ID == id })
}

// phoneIndex maps normalized phone keys to number ids. Caller must hold a lock.
func (s *Store) phoneIndex() map[string]int64 {
	idx := make(map[string]int64, len(s.numbers))
	for _, n := range s.numbers {
		idx[NormalizePhone(n.PhoneNumber)] = n.ID
	}
	return idx
}

func cloneNumbers(numbers []NumberRecord) []NumberRecord {
	out := make([]NumberRecord, len(numbers))
	for i, n := range numbers {
		out[i] = n.clone()
	}
	return out
}

func maxNumberID(numbers []NumberRecord) int64 {
	var maxID int64
	for _, n := range numbers {
		maxID = max(maxID, n.ID)
	}
	return maxID
}

func maxPersonID(persons []PersonRecord) int64 {
	var maxID int64
	for _, p := range persons {
		maxID = max(maxID, p.ID)
	}
	return maxID
}
