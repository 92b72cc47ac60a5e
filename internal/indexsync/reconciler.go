package indexsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/rogrs/loja/internal/repository"
)

// Run drains the outbox every sync interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("reconciler started", zap.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			applied, err := s.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				s.logger.Error("reconcile pass failed", zap.Int("applied", applied), zap.Error(err))
			} else if applied > 0 {
				s.logger.Info("reconciled outbox entries", zap.Int("applied", applied))
			}
		}
	}
}

// RunOnce applies one batch of pending outbox entries and returns how many
// were applied. Entries that fail stay pending with their attempt counter
// bumped; their errors are joined into the returned error.
func (s *Syncer) RunOnce(ctx context.Context) (int, error) {
	entries, err := s.outbox.Pending(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	s.logger.Debug("reconciling outbox entries",
		zap.Int("pending", len(entries)),
		zap.Int64s("entities", lo.Uniq(lo.Map(entries, func(e repository.OutboxEntry, _ int) int64 {
			return e.EntityID
		}))),
	)

	applied := 0
	var errs []error
	for _, entry := range entries {
		if err := s.applyLocked(ctx, entry); err != nil {
			if ferr := s.outbox.RecordFailure(ctx, entry.ID, err); ferr != nil {
				errs = append(errs, ferr)
			}
			errs = append(errs, fmt.Errorf("outbox entry %s: %w", entry.ID, err))
			continue
		}
		if err := s.outbox.Ack(ctx, entry.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

// applyLocked is apply under the entity lock.
func (s *Syncer) applyLocked(ctx context.Context, entry repository.OutboxEntry) error {
	unlock := s.lock(entry.EntityID)
	defer unlock()
	return s.apply(ctx, entry)
}

// apply brings the index in line with the primary store for one entry.
func (s *Syncer) apply(ctx context.Context, entry repository.OutboxEntry) error {
	switch entry.Operation {
	case repository.OperationIndex:
		entity, err := s.primary.FindByID(ctx, entry.EntityID)
		if errors.Is(err, repository.ErrNotFound) {
			return s.index.DeleteByID(ctx, entry.EntityID)
		}
		if err != nil {
			return err
		}
		return s.index.Save(ctx, entity)
	case repository.OperationDelete:
		return s.index.DeleteByID(ctx, entry.EntityID)
	default:
		return fmt.Errorf("%q: %w", entry.Operation, repository.ErrOperationNotSupported)
	}
}
