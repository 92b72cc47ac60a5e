// Package indexsync keeps the search index in step with the primary store.
//
// Every primary write leaves an outbox entry in the same transaction. The
// request path mirrors the change right away and acks the entry; whatever
// it could not apply is picked up by the reconciler on its next pass. Both
// paths re-read the primary row under a per-entity lock, so the index
// always converges on the latest committed state.
package indexsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/rogrs/loja/internal/config"
	"github.com/rogrs/loja/internal/repository"
	"github.com/rogrs/loja/internal/search"
)

// Syncer applies outbox entries to the search index.
type Syncer struct {
	primary repository.TamanhosRepository
	index   search.TamanhosSearchRepository
	outbox  repository.OutboxRepository
	cfg     config.SyncConfig
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[int64]*entityLock
}

type entityLock struct {
	sync.Mutex
	refs int
}

// New creates a Syncer. A nil logger is replaced by a no-op logger.
func New(
	primary repository.TamanhosRepository,
	index search.TamanhosSearchRepository,
	outbox repository.OutboxRepository,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		primary: primary,
		index:   index,
		outbox:  outbox,
		cfg:     cfg,
		logger:  logger.Named("indexsync"),
		locks:   make(map[int64]*entityLock),
	}
}

// lock serializes index writes for one entity and returns the unlock func.
func (s *Syncer) lock(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &entityLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Mirror applies a committed outbox entry to the index and acks it. The
// indexed document is read back from the primary store.
func (s *Syncer) Mirror(ctx context.Context, entry repository.OutboxEntry) error {
	log := s.logger.With(
		zap.String("outbox_id", entry.ID),
		zap.Int64("entity_id", entry.EntityID),
		zap.String("operation", string(entry.Operation)),
	)

	opts := []retry.Option{
		retry.Attempts(s.cfg.RetryAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retrying index mirror", zap.Uint("attempt", n+1), zap.Error(err))
		}),
		retry.Context(ctx),
	}
	if s.cfg.RetryDelay > 0 {
		opts = append(opts, retry.MaxJitter(s.cfg.RetryDelay))
	} else {
		opts = append(opts, retry.DelayType(retry.FixedDelay))
	}

	unlock := s.lock(entry.EntityID)
	defer unlock()

	err := retry.Do(func() error { return s.apply(ctx, entry) }, opts...)
	if err != nil {
		if ferr := s.outbox.RecordFailure(ctx, entry.ID, err); ferr != nil {
			log.Error("failed to record outbox failure", zap.Error(ferr))
		}
		log.Error("index mirror failed, left for reconciler", zap.Error(err))
		return fmt.Errorf("failed to mirror %s of %d into search index: %w", entry.Operation, entry.EntityID, err)
	}

	if err := s.outbox.Ack(ctx, entry.ID); err != nil {
		// The entry is replayed later; applying it twice is harmless.
		log.Warn("failed to ack outbox entry", zap.Error(err))
	}
	return nil
}
