package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theTechGoose/rune/analysis"
)

const valid = `[TYP] id: string
    opaque identity

[REQ] account.link({providerName, externalId}): id
    Account::derive(providerName): id
    [RET] id
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "specs", "auth"), 0755))
	writeDoc(t, dir, "top.rune", valid)
	writeDoc(t, filepath.Join(dir, "specs", "auth"), "link.rune", valid)
	writeDoc(t, dir, "notes.txt", "not a document")

	docs, err := Discover(dir, []string{"**/*.rune"})
	require.NoError(t, err)
	assert.Equal(t, []string{"specs/auth/link.rune", "top.rune"}, docs)
}

func TestPrime(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.rune", valid)
	writeDoc(t, dir, "bad.rune", "[REQ] broken\n")

	w, err := New(Config{Root: dir, Options: analysis.DefaultOptions()})
	require.NoError(t, err)
	defer w.Stop()

	events, err := w.Prime(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	byPath := map[string]Event{}
	for _, ev := range events {
		byPath[ev.Path] = ev
	}
	require.NotNil(t, byPath["good.rune"].Result)
	assert.False(t, byPath["good.rune"].Result.HasErrors())
	require.NotNil(t, byPath["bad.rune"].Result)
	assert.True(t, byPath["bad.rune"].Result.HasErrors())
}

func TestWatcherEmitsAnalysisOnChange(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Config{
		Root:     dir,
		Debounce: 50 * time.Millisecond,
		Options:  analysis.DefaultOptions(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	writeDoc(t, dir, "new.rune", valid)

	select {
	case ev := <-w.Events():
		assert.Equal(t, "new.rune", ev.Path)
		assert.Equal(t, OpCreate, ev.Operation)
		require.NotNil(t, ev.Result)
		assert.False(t, ev.Result.HasErrors())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestUnchangedWriteIsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.rune", valid)

	w, err := New(Config{
		Root:     dir,
		Debounce: 50 * time.Millisecond,
		Options:  analysis.DefaultOptions(),
	})
	require.NoError(t, err)

	_, err = w.Prime(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Rewrite identical content; the hash check should swallow it.
	require.NoError(t, os.WriteFile(path, []byte(valid), 0644))

	select {
	case ev := <-w.Events():
		t.Fatalf("expected no event for unchanged content, got %v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
