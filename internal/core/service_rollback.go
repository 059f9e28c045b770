package core

import (
	"context"
	"log/slog"
	"slices"
)

// snapshot is an exact copy of the collections an operation may touch.
type snapshot struct {
	numbers     []NumberRecord
	persons     []PersonRecord
	maxNumberID int64
	maxPersonID int64
}

// takeSnapshot copies numbers and persons. Logs are append-only and are
// never part of a rollback.
func (s *Store) takeSnapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		numbers:     cloneNumbers(s.numbers),
		persons:     slices.Clone(s.persons),
		maxNumberID: s.maxNumberID,
		maxPersonID: s.maxPersonID,
	}
}

// restore puts the collections back exactly as they were at snapshot time.
func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numbers = cloneNumbers(snap.numbers)
	s.persons = slices.Clone(snap.persons)
	s.maxNumberID = snap.maxNumberID
	s.maxPersonID = snap.maxPersonID
}

// commit saves each touched collection in order. If any save fails, the
// in-memory state is rolled back to snap and collections that were already
// saved are written again from the restored state, so durable and in-memory
// data agree. The first save error is returned.
func (s *Service) commit(ctx context.Context, logger *slog.Logger, snap snapshot, collections ...Collection) error {
	for i, c := range collections {
		err := s.store.Save(ctx, c)
		if err == nil {
			continue
		}

		logger.Error("save failed, rolling back",
			"collection", string(c),
			"error", err,
		)
		s.store.restore(snap)

		for _, saved := range collections[:i] {
			if cerr := s.store.Save(ctx, saved); cerr != nil {
				// Durable copy now differs from memory until the next
				// successful save of this collection.
				logger.Error("compensating save failed",
					"collection", string(saved),
					"error", cerr,
				)
			}
		}
		return err
	}
	return nil
}
