package badger

import (
	"context"
	"testing"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	dgbadger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *dgbadger.DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPageStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore(openTestDB(t))

	require.NoError(t, store.Save(ctx, "Documentation:Acme:Guide:Intro:1.0", "= Intro =", "first", true))
	require.NoError(t, store.Save(ctx, "Documentation:Acme:Guide:Intro:1.0", "= Intro 2 =", "second", false))

	page, err := store.Get(ctx, "Documentation:Acme:Guide:Intro:1.0")
	require.NoError(t, err)
	assert.Equal(t, "= Intro 2 =", page.Content)
	assert.Equal(t, 2, page.Revision)

	err = store.Save(ctx, "Documentation:Acme:Guide:Intro:1.0", "x", "", true)
	assert.True(t, pkgerrors.IsConflict(err))

	titles, err := store.ListTitles(ctx, "Documentation:Acme:")
	require.NoError(t, err)
	assert.Equal(t, []string{"Documentation:Acme:Guide:Intro:1.0"}, titles)

	require.NoError(t, store.Delete(ctx, "Documentation:Acme:Guide:Intro:1.0"))
	_, err = store.Get(ctx, "Documentation:Acme:Guide:Intro:1.0")
	assert.ErrorIs(t, err, pkgerrors.ErrPageNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "Documentation:Acme:Guide:Intro:1.0"), pkgerrors.ErrPageNotFound)
}

func TestTagIndex_FindBySortKeyPrefix(t *testing.T) {
	ctx := context.Background()
	idx := NewTagIndex(openTestDB(t))

	v1 := valueobjects.VersionTag{Product: "Acme", Version: "1.0"}
	v2 := valueobjects.VersionTag{Product: "Acme", Version: "2.0"}

	require.NoError(t, idx.SetPageTags(ctx, "Documentation:Acme:Guide:Intro:1.0", "Acme:Guide:Intro:1.0", []valueobjects.VersionTag{v1, v2}))
	require.NoError(t, idx.SetPageTags(ctx, "Documentation:Acme:Guide:Setup:1.0", "Acme:Guide:Setup:1.0", []valueobjects.VersionTag{v1}))

	titles, err := idx.FindPagesByVersionTag(ctx, "Acme", "1.0", "acme:guide:intro:")
	require.NoError(t, err)
	assert.Equal(t, []string{"Documentation:Acme:Guide:Intro:1.0"}, titles)

	titles, err = idx.FindPagesByVersionTag(ctx, "Acme", "1.0", "")
	require.NoError(t, err)
	assert.Len(t, titles, 2)

	// Retagging drops the 2.0 membership
	require.NoError(t, idx.SetPageTags(ctx, "Documentation:Acme:Guide:Intro:1.0", "Acme:Guide:Intro:1.0", []valueobjects.VersionTag{v1}))
	titles, err = idx.FindPagesByVersionTag(ctx, "Acme", "2.0", "")
	require.NoError(t, err)
	assert.Empty(t, titles)

	tags, err := idx.TagsOf(ctx, "Documentation:Acme:Guide:Intro:1.0")
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.VersionTag{v1}, tags)

	require.NoError(t, idx.RemovePage(ctx, "Documentation:Acme:Guide:Intro:1.0"))
	tags, err = idx.TagsOf(ctx, "Documentation:Acme:Guide:Intro:1.0")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestEdgeStore_ReplaceEdges(t *testing.T) {
	ctx := context.Background()
	store := NewEdgeStore(openTestDB(t))

	edges := []valueobjects.LinkEdge{
		{FromTitle: "Documentation/Acme/1.0/Guide/Intro", ToTitle: "Documentation/Acme/1.0/Guide/Setup"},
		{FromTitle: "Documentation/Acme/2.0/Guide/Intro", ToTitle: "Documentation/Acme/2.0/Guide/Setup"},
	}
	froms := []string{"Documentation/Acme/1.0/Guide/Intro", "Documentation/Acme/2.0/Guide/Intro"}
	require.NoError(t, store.ReplaceEdges(ctx, froms, edges))

	out, err := store.EdgesFrom(ctx, "Documentation/Acme/1.0/Guide/Intro")
	require.NoError(t, err)
	assert.Equal(t, edges[:1], out)

	in, err := store.EdgesTo(ctx, "Documentation/Acme/2.0/Guide/Setup")
	require.NoError(t, err)
	assert.Equal(t, edges[1:], in)

	require.NoError(t, store.ReplaceEdges(ctx, froms, nil))
	in, err = store.EdgesTo(ctx, "Documentation/Acme/1.0/Guide/Setup")
	require.NoError(t, err)
	assert.Empty(t, in)
}
