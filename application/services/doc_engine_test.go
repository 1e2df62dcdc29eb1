package services

import (
	"context"
	"testing"
	"time"

	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocEngine_AcmeScenario(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedAcme(t)

	// Navigation before any TOC exists lists no manuals
	nav, err := f.engine.GetNavigation(ctx, "Acme", "latest", valueobjects.DocContext{})
	require.NoError(t, err)
	assert.Equal(t, "2.0", nav.Version)
	assert.Empty(t, nav.Manuals)

	// Saving the TOC creates the missing Setup topic at the earliest version
	res := f.save(t, "Documentation:Acme:GuideTOC2.0", acmeTOC)
	assert.Equal(t, []string{"Documentation:Acme:Guide:Setup:1.0"}, res.AutoCreated)
	assert.Equal(t, []string{"1.0", "2.0"}, res.Membership)

	setup, err := f.pages.Get(ctx, "Documentation:Acme:Guide:Setup:1.0")
	require.NoError(t, err)
	assert.Contains(t, setup.Content, "= Setup =")
	assert.Contains(t, setup.Content, "[[Category:V:Acme:2.0]]")

	// The TOC save invalidated the cached navigation
	nav, err = f.engine.GetNavigation(ctx, "Acme", "2.0", valueobjects.DocContext{})
	require.NoError(t, err)
	require.Len(t, nav.Manuals, 1)
	assert.Equal(t, "User Guide", nav.Manuals[0].LongName)
	assert.Equal(t, "Intro", nav.Manuals[0].FirstTitle)
	assert.Equal(t, "Documentation/Acme/2.0/Guide/Intro", nav.Manuals[0].FirstURL)
	assert.Equal(t, "NAVDATA-Acme-2.0", nav.Key)

	toc, err := f.engine.GetTOC(ctx, "Acme", "Guide", "1.0", valueobjects.DocContext{})
	require.NoError(t, err)
	require.Len(t, toc.Entries, 3)
	assert.True(t, toc.Entries[0].Section)
	assert.Equal(t, "Documentation/Acme/1.0/Guide/Setup", toc.Entries[2].Link)
	assert.Equal(t, 1, toc.Entries[2].Level)

	// The Intro topic links to Setup once per membership version
	backlinks, err := f.engine.Backlinks(ctx, "Documentation/Acme/2.0/Guide/Setup")
	require.NoError(t, err)
	require.Len(t, backlinks, 1)
	assert.Equal(t, "Documentation/Acme/2.0/Guide/Intro", backlinks[0].FromTitle)

	products, err := f.engine.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Acme Server", products[0].LongName)

	versions, err := f.engine.Versions(ctx, "Acme")
	require.NoError(t, err)
	assert.Len(t, versions, 3)

	url, err := f.engine.TranslateLinkToken("Documentation:Acme:Guide:Setup",
		valueobjects.NewDocContext("Acme").WithSelectedVersion("Acme", "1.0"))
	require.NoError(t, err)
	assert.Equal(t, "Documentation/Acme/1.0/Guide/Setup", url)
}

func TestDocEngine_VersionConflict(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedAcme(t)

	_, err := f.engine.SavePage(ctx, SaveRequest{
		Title:   "Documentation:Acme:Guide:Intro:2.0",
		Content: "Second copy\n[[Category:V:Acme:2.0]]",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrVersionConflict)

	de := pkgerrors.GetDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "Documentation:Acme:Guide:Intro:1.0", de.Details["conflictingTitle"])
	assert.Equal(t, []string{"2.0"}, de.Details["versions"])

	exists, err := f.pages.Exists(ctx, "Documentation:Acme:Guide:Intro:2.0")
	require.NoError(t, err)
	assert.False(t, exists, "a rejected save writes nothing")
	assert.Equal(t, 1, f.metrics.conflicts)

	// Releasing the version lets the new copy claim it
	removed, err := f.engine.RemoveVersionTags(ctx, "Documentation:Acme:Guide:Intro:1.0", "Acme", []string{"2.0", "9.9"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2.0"}, removed)

	f.save(t, "Documentation:Acme:Guide:Intro:2.0", "Second copy\n[[Category:V:Acme:2.0]]")

	res := f.engine.ResolveRequestToPage(ctx, "Documentation/Acme/latest/Guide/Intro", valueobjects.DocContext{})
	assert.Equal(t, ResolutionPage, res.Kind)
	assert.Equal(t, "Documentation:Acme:Guide:Intro:2.0", res.Title)
}

func TestDocEngine_UnknownVersionTag(t *testing.T) {
	f := newFixture(t, false)
	f.seedAcme(t)

	_, err := f.engine.SavePage(context.Background(), SaveRequest{
		Title:   "Documentation:Acme:Guide:Other:1.0",
		Content: "[[Category:V:Acme:9.9]]",
	})
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownVersion)

	_, err = f.engine.SavePage(context.Background(), SaveRequest{
		Title:   "Documentation:Acme:Guide:Other:1.0",
		Content: "[[Category:V:Nope:1.0]]",
	})
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownVersion)
}

func TestDocEngine_TOCConflict(t *testing.T) {
	f := newFixture(t, false)
	f.seedAcme(t)
	f.save(t, "Documentation:Acme:GuideTOC2.0", acmeTOC)

	_, err := f.engine.SavePage(context.Background(), SaveRequest{
		Title:   "Documentation:Acme:GuideTOC1.0",
		Content: "{{#topic:Intro}}\n[[Category:V:Acme:1.0]]",
	})
	assert.ErrorIs(t, err, pkgerrors.ErrVersionConflict)
}

func TestDocEngine_DeletePage(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedAcme(t)
	require.Equal(t, 2, f.edges.Count())

	require.NoError(t, f.engine.DeletePage(ctx, "Documentation:Acme:Guide:Intro:1.0"))

	assert.Equal(t, 0, f.edges.Count())
	tags, err := f.tags.TagsOf(ctx, "Documentation:Acme:Guide:Intro:1.0")
	require.NoError(t, err)
	assert.Empty(t, tags)

	res := f.engine.ResolveRequestToPage(ctx, "Documentation/Acme/1.0/Guide/Intro", valueobjects.DocContext{})
	assert.Equal(t, ResolutionNotFound, res.Kind)
	assert.ErrorIs(t, res.Err, pkgerrors.ErrPageNotFound)

	err = f.engine.DeletePage(ctx, "Documentation:Acme:Guide:Intro:1.0")
	assert.ErrorIs(t, err, pkgerrors.ErrPageNotFound)
}

func TestDocEngine_AutoCreateOnEdit(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.seedAcme(t)

	res := f.save(t, "Documentation:Acme:Guide:Start:1.0",
		"See [[Documentation:Admin:Users|Managing users]] and [[Documentation:Acme:Guide:Intro]].\n[[Category:V:Acme:1.0]]")

	// The three segment link resolves at the edited version; Intro exists already
	assert.Equal(t, []string{"Documentation:Acme:Admin:Users:1.0"}, res.AutoCreated)

	page, err := f.pages.Get(ctx, "Documentation:Acme:Admin:Users:1.0")
	require.NoError(t, err)
	assert.Contains(t, page.Content, "= Managing users =")
	assert.Contains(t, page.Content, "[[Category:V:Acme:1.0]]")
}

func TestDocEngine_ConcurrentSavesForOneSlot(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedAcme(t)
	prefix := valueobjects.TopicSortKeyPrefix("Acme", "Guide", "Setup")

	save := func(title string) <-chan error {
		done := make(chan error, 1)
		go func() {
			_, err := f.engine.SavePage(ctx, SaveRequest{
				Title:   title,
				Content: "= Setup =\n[[Category:V:Acme:1.0]]",
			})
			done <- err
		}()
		return done
	}

	// The first save is paused after its conflict lookup found no owner
	reached, open := f.gate.Arm(prefix)
	defer open()
	first := save("Documentation:Acme:Guide:Setup:1.0")
	waitFor(t, reached)

	second := save("Documentation:Acme:Guide:Setup:2.0")
	assert.Never(t, func() bool { return len(second) > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	open()
	assert.NoError(t, <-first)
	assert.ErrorIs(t, <-second, pkgerrors.ErrVersionConflict)

	owners, err := f.tags.FindPagesByVersionTag(ctx, "Acme", "1.0", prefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"Documentation:Acme:Guide:Setup:1.0"}, owners)
}

func TestDocEngine_RemoveVersionTagsWaitsForSlot(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedAcme(t)

	// A save of another Intro copy holds the slot while paused
	reached, open := f.gate.Arm(valueobjects.TopicSortKeyPrefix("Acme", "Guide", "Intro"))
	defer open()
	saved := make(chan error, 1)
	go func() {
		_, err := f.engine.SavePage(ctx, SaveRequest{
			Title:   "Documentation:Acme:Guide:Intro:3.0",
			Content: "New intro\n[[Category:V:Acme:3.0]]",
		})
		saved <- err
	}()
	waitFor(t, reached)

	removed := make(chan []string, 1)
	go func() {
		versions, err := f.engine.RemoveVersionTags(ctx, "Documentation:Acme:Guide:Intro:1.0", "Acme", []string{"2.0"})
		assert.NoError(t, err)
		removed <- versions
	}()
	assert.Never(t, func() bool { return len(removed) > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	open()
	require.NoError(t, <-saved)
	assert.Equal(t, []string{"2.0"}, <-removed)
}
