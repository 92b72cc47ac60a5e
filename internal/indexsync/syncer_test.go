package indexsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogrs/loja/internal/config"
	"github.com/rogrs/loja/internal/domain"
	"github.com/rogrs/loja/internal/page"
	"github.com/rogrs/loja/internal/repository"
	"github.com/rogrs/loja/internal/search"
	"github.com/rogrs/loja/internal/testutil"
)

var errIndexDown = errors.New("index down")

// flakyIndex fails the next `failures` writes before delegating.
type flakyIndex struct {
	search.TamanhosSearchRepository

	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyIndex) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errIndexDown
	}
	return nil
}

func (f *flakyIndex) setFailures(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
	f.calls = 0
}

func (f *flakyIndex) Save(ctx context.Context, e domain.Tamanhos) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.TamanhosSearchRepository.Save(ctx, e)
}

func (f *flakyIndex) DeleteByID(ctx context.Context, id int64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.TamanhosSearchRepository.DeleteByID(ctx, id)
}

type fixture struct {
	primary repository.TamanhosRepository
	outbox  repository.OutboxRepository
	index   *flakyIndex
	syncer  *Syncer
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	ds := testutil.SetupTestDatastore(t, name)

	primary := repository.NewTamanhosRepository(ds.Primary)
	t.Cleanup(func() { primary.Close() })
	outbox := repository.NewOutboxRepository(ds.Primary)
	index := &flakyIndex{TamanhosSearchRepository: search.NewTamanhosIndex(ds.Index)}

	cfg := config.NewConfig().Sync
	cfg.RetryDelay = time.Millisecond
	cfg.Interval = 10 * time.Millisecond

	return &fixture{
		primary: primary,
		outbox:  outbox,
		index:   index,
		syncer:  New(primary, index, outbox, cfg, nil),
	}
}

func (f *fixture) pending(t *testing.T) []repository.OutboxEntry {
	t.Helper()
	entries, err := f.outbox.Pending(context.Background(), 100)
	require.NoError(t, err)
	return entries
}

func (f *fixture) indexed(t *testing.T, query string) []domain.Tamanhos {
	t.Helper()
	p, err := f.index.Search(context.Background(), query, page.Request{Size: 100})
	require.NoError(t, err)
	return p.Content
}

func TestSyncer_Mirror(t *testing.T) {
	f := newFixture(t, "TestSyncer_Mirror")
	ctx := context.Background()

	saved, entry, err := f.primary.SaveTracked(ctx, domain.Tamanhos{Name: "M"})
	require.NoError(t, err)

	require.NoError(t, f.syncer.Mirror(ctx, entry))
	assert.Empty(t, f.pending(t))

	docs := f.indexed(t, "M")
	require.Len(t, docs, 1)
	assert.Equal(t, saved.IDValue(), docs[0].IDValue())
}

func TestSyncer_Mirror_RetriesTransientFailure(t *testing.T) {
	f := newFixture(t, "TestSyncer_Mirror_RetriesTransientFailure")
	ctx := context.Background()

	_, entry, err := f.primary.SaveTracked(ctx, domain.Tamanhos{Name: "G"})
	require.NoError(t, err)

	f.index.setFailures(2)
	require.NoError(t, f.syncer.Mirror(ctx, entry))
	assert.Equal(t, 3, f.index.calls)
	assert.Empty(t, f.pending(t))
	assert.Len(t, f.indexed(t, "G"), 1)
}

func TestSyncer_Mirror_FailureKeepsEntry(t *testing.T) {
	f := newFixture(t, "TestSyncer_Mirror_FailureKeepsEntry")
	ctx := context.Background()

	_, entry, err := f.primary.SaveTracked(ctx, domain.Tamanhos{Name: "GG"})
	require.NoError(t, err)

	f.index.setFailures(10)
	err = f.syncer.Mirror(ctx, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, errIndexDown)

	pending := f.pending(t)
	require.Len(t, pending, 1)
	assert.Equal(t, entry.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, errIndexDown.Error(), pending[0].LastError)

	// The reconciler repairs the index once it is reachable again
	f.index.setFailures(0)
	applied, err := f.syncer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Empty(t, f.pending(t))
	assert.Len(t, f.indexed(t, "GG"), 1)
}

func TestSyncer_Mirror_Delete(t *testing.T) {
	f := newFixture(t, "TestSyncer_Mirror_Delete")
	ctx := context.Background()

	saved, entry, err := f.primary.SaveTracked(ctx, domain.Tamanhos{Name: "P"})
	require.NoError(t, err)
	require.NoError(t, f.syncer.Mirror(ctx, entry))

	entry, err = f.primary.DeleteTracked(ctx, saved.IDValue())
	require.NoError(t, err)
	require.NoError(t, f.syncer.Mirror(ctx, entry))

	assert.Empty(t, f.pending(t))
	assert.Empty(t, f.indexed(t, "*"))
}

func TestSyncer_Mirror_OutOfOrder(t *testing.T) {
	f := newFixture(t, "TestSyncer_Mirror_OutOfOrder")
	ctx := context.Background()

	saved, first, err := f.primary.SaveTracked(ctx, domain.Tamanhos{Name: "L"})
	require.NoError(t, err)
	_, second, err := f.primary.SaveTracked(ctx, domain.Tamanhos{Name: "XL"}.WithID(saved.IDValue()))
	require.NoError(t, err)

	// The newer write is mirrored before the older one
	require.NoError(t, f.syncer.Mirror(ctx, second))
	require.NoError(t, f.syncer.Mirror(ctx, first))

	applied, err := f.syncer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	docs := f.indexed(t, "*")
	require.Len(t, docs, 1)
	assert.Equal(t, "XL", docs[0].Name)
}

func TestSyncer_Mirror_Concurrent(t *testing.T) {
	f := newFixture(t, "TestSyncer_Mirror_Concurrent")
	ctx := context.Background()

	saved, err := f.primary.Save(ctx, domain.Tamanhos{Name: "P"})
	require.NoError(t, err)
	id := saved.IDValue()

	var entries []repository.OutboxEntry
	for _, name := range []string{"M", "G", "GG"} {
		_, entry, err := f.primary.SaveTracked(ctx, domain.Tamanhos{Name: name}.WithID(id))
		require.NoError(t, err)
		entries = append(entries, entry)
	}

	var wg sync.WaitGroup
	for i := len(entries) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(entry repository.OutboxEntry) {
			defer wg.Done()
			assert.NoError(t, f.syncer.Mirror(ctx, entry))
		}(entries[i])
	}
	wg.Wait()

	docs := f.indexed(t, "*")
	require.Len(t, docs, 1)
	assert.Equal(t, "GG", docs[0].Name)
	assert.Empty(t, f.syncer.locks)
}

func TestSyncer_RunOnce(t *testing.T) {
	f := newFixture(t, "TestSyncer_RunOnce")
	ctx := context.Background()

	kept, err := f.primary.Save(ctx, domain.Tamanhos{Name: "M", Description: "Médio"})
	require.NoError(t, err)
	gone, err := f.primary.Save(ctx, domain.Tamanhos{Name: "P"})
	require.NoError(t, err)
	require.NoError(t, f.primary.DeleteByID(ctx, gone.IDValue()))

	// A stale document for the deleted row
	require.NoError(t, f.index.TamanhosSearchRepository.Save(ctx, gone))

	applied, err := f.syncer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.Empty(t, f.pending(t))

	docs := f.indexed(t, "*")
	require.Len(t, docs, 1)
	assert.Equal(t, kept.IDValue(), docs[0].IDValue())
	assert.Equal(t, "Médio", docs[0].Description)

	applied, err = f.syncer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestSyncer_RunOnce_Failure(t *testing.T) {
	f := newFixture(t, "TestSyncer_RunOnce_Failure")
	ctx := context.Background()

	_, err := f.primary.Save(ctx, domain.Tamanhos{Name: "M"})
	require.NoError(t, err)

	f.index.setFailures(1)
	applied, err := f.syncer.RunOnce(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errIndexDown)
	assert.Zero(t, applied)

	pending := f.pending(t)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
}

func TestSyncer_Run(t *testing.T) {
	f := newFixture(t, "TestSyncer_Run")
	ctx, cancel := context.WithCancel(context.Background())

	_, err := f.primary.Save(ctx, domain.Tamanhos{Name: "XG"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		f.syncer.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		entries, err := f.outbox.Pending(context.Background(), 10)
		return err == nil && len(entries) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop")
	}
	assert.Len(t, f.indexed(t, "XG"), 1)
}

func TestSyncer_Reindex(t *testing.T) {
	f := newFixture(t, "TestSyncer_Reindex")
	ctx := context.Background()

	for _, name := range []string{"P", "M", "G"} {
		_, err := f.primary.Save(ctx, domain.Tamanhos{Name: name})
		require.NoError(t, err)
	}
	// Orphan document with no primary row
	require.NoError(t, f.index.Save(ctx, domain.Tamanhos{Name: "orphan"}.WithID(999)))

	n, err := f.syncer.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	count, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Empty(t, f.indexed(t, "orphan"))
	assert.Empty(t, f.pending(t))
}
