package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/roster/internal/logging"
)

// DefaultTimeLayout formats importTime and log timestamps.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// DefaultSource is the fileName tag stamped on pasted imports.
const DefaultSource = "粘贴导入"

// Options configures a Service. Zero values select the defaults.
type Options struct {
	MaxWait        time.Duration // How long a queued operation waits for the gate
	RejectWhenBusy bool          // Fail with ErrBusy instead of queuing
	TimeLayout     string
	DefaultSource  string
	ImportEncoding string // utf-8 or gb18030, for ImportReader
	MaxImportBytes int64
	Sampler        *Sampler
	Clock          func() time.Time
}

// Service is the assignment and bulk-transfer engine. Every mutating
// operation runs under the Gate, persists every collection it touched and
// appends one log entry before returning.
type Service struct {
	store   *Store
	gate    *Gate
	sampler *Sampler
	now     func() time.Time

	timeLayout     string
	defaultSource  string
	importEncoding string
	maxImportBytes int64
}

// NewService creates a Service over an already loaded store.
func NewService(store *Store, opts Options) *Service {
	s := &Service{
		store:          store,
		gate:           NewGate(opts.MaxWait, opts.RejectWhenBusy),
		sampler:        opts.Sampler,
		now:            opts.Clock,
		timeLayout:     opts.TimeLayout,
		defaultSource:  opts.DefaultSource,
		importEncoding: opts.ImportEncoding,
		maxImportBytes: opts.MaxImportBytes,
	}
	if s.sampler == nil {
		s.sampler = NewSampler(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timeLayout == "" {
		s.timeLayout = DefaultTimeLayout
	}
	if s.defaultSource == "" {
		s.defaultSource = DefaultSource
	}
	if s.maxImportBytes <= 0 {
		s.maxImportBytes = DefaultMaxImportBytes
	}
	return s
}

// Store returns the underlying record store.
func (s *Service) Store() *Store {
	return s.store
}

// Gate returns the operation gate, for shutdown and status reporting.
func (s *Service) Gate() *Gate {
	return s.gate
}

// run executes one mutating operation under the gate.
//
// Once the gate is held the operation runs to completion or rollback: the
// caller's cancellation is detached so a persist step is never abandoned
// halfway.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context, logger *slog.Logger) error) error {
	if err := s.gate.Acquire(ctx); err != nil {
		logging.FromContext(ctx).Warn("operation not started",
			"operation", op,
			"error", err,
		)
		return err
	}
	defer s.gate.Release()

	ctx = context.WithoutCancel(ctx)
	if logging.OperationID(ctx) == "" {
		ctx = logging.WithOperationID(ctx, uuid.NewString())
	}
	logger := logging.WithFields(ctx, "operation", op)

	start := time.Now()
	logger.Debug("operation started")

	if err := fn(ctx, logger); err != nil {
		logger.Warn("operation failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	logger.Info("operation completed",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// timestamp returns the current time in the service layout.
func (s *Service) timestamp() string {
	return s.now().Format(s.timeLayout)
}

// SampleUnassigned previews a random draw of unassigned numbers without
// assigning them.
func (s *Service) SampleUnassigned(n int) []NumberRecord {
	return s.sampler.Sample(s.store.Numbers(), n)
}

// Stats returns collection totals.
func (s *Service) Stats() RosterStats {
	var st RosterStats
	s.store.view(func() {
		st.Numbers = len(s.store.numbers)
		for _, n := range s.store.numbers {
			if n.Unassigned() {
				st.Unassigned++
			}
		}
		st.Persons = len(s.store.persons)
		st.Logs = len(s.store.logs)
	})
	return st
}
