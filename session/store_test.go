package session

import (
	"testing"

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

func TestUpdateAndGet(t *testing.T) {
	store := NewStore(analysis.DefaultOptions(), nil)
	assert.NotEmpty(t, store.ID())

	doc, ok := store.Update("a.rune", 1, valid)
	require.True(t, ok)
	assert.Equal(t, 1, doc.Version)
	assert.False(t, doc.Result.HasErrors())

	got, ok := store.Get("a.rune")
	require.True(t, ok)
	assert.Same(t, doc, got)
}

func TestStaleVersionIsDiscarded(t *testing.T) {
	store := NewStore(analysis.DefaultOptions(), nil)

	newer, ok := store.Update("a.rune", 5, valid)
	require.True(t, ok)

	// An older edit arriving late must not replace the retained result.
	doc, ok := store.Update("a.rune", 3, "[REQ] broken")
	assert.False(t, ok)
	assert.Same(t, newer, doc)

	got, _ := store.Get("a.rune")
	assert.Equal(t, 5, got.Version)
	assert.False(t, got.Result.HasErrors())
}

func TestEqualVersionIsDiscarded(t *testing.T) {
	store := NewStore(analysis.DefaultOptions(), nil)
	first, _ := store.Update("a.rune", 2, valid)
	doc, ok := store.Update("a.rune", 2, valid)
	assert.False(t, ok)
	assert.Same(t, first, doc)
}

func TestRemoveAndURIs(t *testing.T) {
	store := NewStore(analysis.DefaultOptions(), nil)
	store.Update("b.rune", 1, valid)
	store.Update("a.rune", 1, valid)

	assert.Equal(t, []string{"a.rune", "b.rune"}, store.URIs())
	assert.Equal(t, 2, store.Len())

	store.Remove("a.rune")
	assert.Equal(t, []string{"b.rune"}, store.URIs())
	_, ok := store.Get("a.rune")
	assert.False(t, ok)
}
