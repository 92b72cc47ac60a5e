package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogrs/loja/internal/domain"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "loja.yaml")
	content := "database:\n  path: " + filepath.Join(dir, "loja.db") +
		"\nsearch:\n  path: " + filepath.Join(dir, "search.db") +
		"\nlog:\n  disable: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "--config", path, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "primary store at version 2\nsearch index at version 1\n", out)

	out, err = run(t, "--config", path, "migrate", "--rollback")
	require.NoError(t, err)
	assert.Contains(t, out, "primary store at version 1")
}

func TestReindexCommand(t *testing.T) {
	path := writeConfig(t)
	ctx := context.Background()

	a, err := openApp(ctx, path)
	require.NoError(t, err)
	for _, name := range []string{"P", "M"} {
		_, err := a.primary.Save(ctx, domain.Tamanhos{Name: name})
		require.NoError(t, err)
	}
	require.NoError(t, a.Close())

	out, err := run(t, "--config", path, "reindex")
	require.NoError(t, err)
	assert.Equal(t, "indexed 2 documents\n", out)

	a, err = openApp(ctx, path)
	require.NoError(t, err)
	defer a.Close()
	count, err := a.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	pending, err := a.outbox.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestConfigErrors(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate")
	assert.Error(t, err)
}
