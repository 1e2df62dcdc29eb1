package services

import (
	"context"
	"testing"
	"time"

	"ponydocs/domain/core/valueobjects"
	"ponydocs/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLinkGraph() (*LinkGraphService, *memory.EdgeStore) {
	edges := memory.NewEdgeStore()
	svc := NewLinkGraphService(edges, memory.NewKeyedLocker(), valueobjects.NewCodec(nil), time.Second, nil, zap.NewNop())
	return svc, edges
}

func TestLinkGraphService_OneEdgePerMembershipVersion(t *testing.T) {
	svc, edges := newLinkGraph()
	ctx := context.Background()
	title := "Documentation:Acme:Guide:Intro:1.0"
	content := "See [[Documentation:Guide:Setup]] and [[Documentation:Guide:Setup|again]]."

	require.NoError(t, svc.OnSaved(ctx, title, content, []string{"1.0", "2.0"}, nil))
	assert.Equal(t, 2, edges.Count())

	out, err := svc.Outgoing(ctx, "Documentation/Acme/1.0/Guide/Intro")
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.LinkEdge{{
		FromTitle: "Documentation/Acme/1.0/Guide/Intro",
		ToTitle:   "Documentation/Acme/1.0/Guide/Setup",
	}}, out)

	// Dropping 2.0 from the membership removes exactly its edge
	require.NoError(t, svc.OnSaved(ctx, title, content, []string{"1.0"}, []string{"1.0", "2.0"}))
	assert.Equal(t, 1, edges.Count())
	back, err := svc.Backlinks(ctx, "Documentation/Acme/2.0/Guide/Setup")
	require.NoError(t, err)
	assert.Empty(t, back)

	require.NoError(t, svc.OnDeleted(ctx, title, []string{"1.0"}))
	assert.Equal(t, 0, edges.Count())
}

func TestLinkGraphService_DeleteLeavesOtherPages(t *testing.T) {
	svc, edges := newLinkGraph()
	ctx := context.Background()

	require.NoError(t, svc.OnSaved(ctx, "Documentation:Acme:Guide:Intro:1.0",
		"[[Documentation:Guide:Setup]]", []string{"1.0", "2.0"}, nil))
	require.NoError(t, svc.OnSaved(ctx, "Documentation:Acme:Guide:Setup:1.0",
		"[[Documentation:Guide:Intro]]", []string{"1.0"}, nil))
	require.Equal(t, 3, edges.Count())

	require.NoError(t, svc.OnDeleted(ctx, "Documentation:Acme:Guide:Intro:1.0", []string{"1.0", "2.0"}))

	assert.Equal(t, 1, edges.Count())
	back, err := svc.Backlinks(ctx, "Documentation/Acme/1.0/Guide/Intro")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "Documentation/Acme/1.0/Guide/Setup", back[0].FromTitle)
}

func TestLinkGraphService_ComputeEdges(t *testing.T) {
	svc, _ := newLinkGraph()

	t.Run("non documentation page uses its raw title", func(t *testing.T) {
		edges := svc.ComputeEdges("Help:Links", "[[Documentation:Acme:Guide:Intro:1.0]] [[Main Page]]", nil)
		assert.Equal(t, []valueobjects.LinkEdge{
			{FromTitle: "Help:Links", ToTitle: "Documentation/Acme/1.0/Guide/Intro"},
			{FromTitle: "Help:Links", ToTitle: "Main Page"},
		}, edges)
	})

	t.Run("unresolvable links are skipped", func(t *testing.T) {
		edges := svc.ComputeEdges("Help:Links", "[[Documentation:Guide:Setup]]", nil)
		assert.Empty(t, edges)
	})

	t.Run("cross product links use latest", func(t *testing.T) {
		edges := svc.ComputeEdges("Documentation:Acme:Guide:Intro:1.0",
			"[[Documentation:Widget:Guide:Start]]", []string{"1.0"})
		require.Len(t, edges, 1)
		assert.Equal(t, "Documentation/Widget/latest/Guide/Start", edges[0].ToTitle)
	})

	t.Run("documentation pages other than topics have no edges", func(t *testing.T) {
		assert.Empty(t, svc.FromTitles("Documentation:Acme:GuideTOC1.0", []string{"1.0"}))
		assert.Empty(t, svc.ComputeEdges("Documentation:Acme:GuideTOC1.0", "[[Documentation:Acme:Guide:Intro:1.0]]", []string{"1.0"}))
		assert.Empty(t, svc.FromTitles("Documentation:Acme:Versions", nil))
		assert.Empty(t, svc.ComputeEdges("Documentation:Products", "[[Documentation:Acme:Guide:Intro:1.0]]", nil))
	})

	t.Run("topic without membership has no sources", func(t *testing.T) {
		assert.Empty(t, svc.FromTitles("Documentation:Acme:Guide:Intro:1.0", nil))
		assert.Empty(t, svc.ComputeEdges("Documentation:Acme:Guide:Intro:1.0", "[[Documentation:Guide:Setup]]", nil))
	})
}

func TestLinkGraphService_TOCSaveAddsNoEdges(t *testing.T) {
	svc, edges := newLinkGraph()

	require.NoError(t, svc.OnSaved(context.Background(), "Documentation:Acme:GuideTOC1.0",
		"{{#topic:Intro}}\n[[Documentation:Acme:Guide:Intro:1.0]]", []string{"1.0"}, nil))

	assert.Equal(t, 0, edges.Count())
}

func TestLinkGraphService_ReplaceWaitsForPageLock(t *testing.T) {
	edges := memory.NewEdgeStore()
	locker := memory.NewKeyedLocker()
	svc := NewLinkGraphService(edges, locker, valueobjects.NewCodec(nil), time.Second, nil, zap.NewNop())
	ctx := context.Background()
	title := "Documentation:Acme:Guide:Intro:1.0"

	held, err := locker.Acquire(ctx, "links:"+title, time.Second)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- svc.OnSaved(ctx, title, "[[Documentation:Guide:Setup]]", []string{"1.0"}, nil)
	}()

	assert.Never(t, func() bool { return len(done) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 0, edges.Count())

	require.NoError(t, held.Release(ctx))
	require.NoError(t, <-done)
	assert.Equal(t, 1, edges.Count())
}
