package indexsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rogrs/loja/internal/domain"
)

// Reindex rebuilds the search index from the primary store and clears the
// outbox. It returns the number of documents indexed.
func (s *Syncer) Reindex(ctx context.Context) (int64, error) {
	if err := s.index.DeleteAll(ctx); err != nil {
		return 0, err
	}

	var indexed int64
	err := s.primary.ForEachBatch(ctx, s.cfg.BatchSize, func(batch []domain.Tamanhos) error {
		if err := s.index.SaveAll(ctx, batch); err != nil {
			return err
		}
		indexed += int64(len(batch))
		s.logger.Debug("indexed batch", zap.Int("size", len(batch)), zap.Int64("total", indexed))
		return nil
	})
	if err != nil {
		return indexed, fmt.Errorf("reindex stopped after %d documents: %w", indexed, err)
	}

	if err := s.outbox.Clear(ctx); err != nil {
		return indexed, err
	}

	s.logger.Info("reindex complete", zap.Int64("documents", indexed))
	return indexed, nil
}
