package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"ponydocs/application/ports"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/domain/wikitext"
)

// LinkGraphService keeps the stored link graph consistent with page content.
// Edges of a page are always replaced as a whole, under a per-page lock.
type LinkGraphService struct {
	edges   ports.EdgeStore
	locker  ports.Locker
	codec   *valueobjects.Codec
	lockTTL time.Duration
	metrics ports.MetricsRecorder
	logger  *zap.Logger
}

// NewLinkGraphService creates a new link graph service
func NewLinkGraphService(
	edges ports.EdgeStore,
	locker ports.Locker,
	codec *valueobjects.Codec,
	lockTTL time.Duration,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *LinkGraphService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &LinkGraphService{
		edges:   edges,
		locker:  locker,
		codec:   codec,
		lockTTL: lockTTL,
		metrics: metrics,
		logger:  logger,
	}
}

// FromTitles returns the graph sources of a page: one pretty URL per
// membership version for topics, the raw title for pages outside the
// documentation namespace. Other documentation pages have no sources.
func (s *LinkGraphService) FromTitles(title string, membership []string) []string {
	info := s.codec.ClassifyTitle(title)
	if info.Kind != valueobjects.TitleTopic {
		if s.inDocNamespace(title) {
			return nil
		}
		return []string{title}
	}

	froms := make([]string, 0, len(membership))
	for _, v := range dedupe(membership) {
		id := valueobjects.NewCanonicalIdentifier(s.codec.Namespace(), info.Product, info.Manual, info.Topic, v)
		froms = append(froms, s.codec.ToPrettyURL(id))
	}
	return froms
}

// ComputeEdges scans content for links and translates each one in the
// context of every membership version. Unresolvable links are skipped.
func (s *LinkGraphService) ComputeEdges(title, content string, membership []string) []valueobjects.LinkEdge {
	targets := wikitext.LinkTargets(content)
	if len(targets) == 0 {
		return nil
	}

	info := s.codec.ClassifyTitle(title)
	seen := make(map[valueobjects.LinkEdge]struct{})
	var edges []valueobjects.LinkEdge

	add := func(from string, dc valueobjects.DocContext, ambient string) {
		for _, t := range targets {
			id, err := s.codec.ToCanonical(s.codec.ParsePartialLink(t, ambient), dc)
			if err != nil {
				s.logger.Debug("Skipping unresolvable link",
					zap.String("from", from),
					zap.String("token", t),
					zap.Error(err),
				)
				continue
			}
			e := valueobjects.LinkEdge{FromTitle: from, ToTitle: s.codec.ToPrettyURL(id)}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}

	if info.Kind != valueobjects.TitleTopic {
		if s.inDocNamespace(title) {
			return nil
		}
		add(title, valueobjects.DocContext{}, namespaceOf(title))
		return edges
	}

	for _, v := range dedupe(membership) {
		dc := valueobjects.NewDocContext(info.Product).
			WithManual(info.Manual).
			WithTopic(info.Topic).
			WithSelectedVersion(info.Product, v)
		from := s.codec.ToPrettyURL(valueobjects.NewCanonicalIdentifier(s.codec.Namespace(), info.Product, info.Manual, info.Topic, v))
		add(from, dc, s.codec.Namespace())
	}
	return edges
}

// OnSaved replaces the outgoing edges of a page. Sources of previous
// membership versions are cleared too so a dropped version leaves no edges.
func (s *LinkGraphService) OnSaved(ctx context.Context, title, content string, membership, previous []string) error {
	froms := s.FromTitles(title, union(membership, previous))
	edges := s.ComputeEdges(title, content, membership)
	return s.replace(ctx, title, froms, edges)
}

// OnDeleted removes every edge leaving the page
func (s *LinkGraphService) OnDeleted(ctx context.Context, title string, membership []string) error {
	return s.replace(ctx, title, s.FromTitles(title, membership), nil)
}

func (s *LinkGraphService) replace(ctx context.Context, title string, froms []string, edges []valueobjects.LinkEdge) error {
	if len(froms) == 0 {
		return nil
	}

	lock, err := s.locker.Acquire(ctx, "links:"+title, s.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock link graph for %s: %w", title, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release link graph lock", zap.String("title", title), zap.Error(err))
		}
	}()

	if err := s.edges.ReplaceEdges(ctx, froms, edges); err != nil {
		return err
	}

	s.metrics.LinksReplaced(len(edges))
	s.logger.Debug("Link graph updated",
		zap.String("title", title),
		zap.Int("sources", len(froms)),
		zap.Int("edges", len(edges)),
	)
	return nil
}

// Backlinks returns the edges pointing at a pretty URL or raw title
func (s *LinkGraphService) Backlinks(ctx context.Context, to string) ([]valueobjects.LinkEdge, error) {
	return s.edges.EdgesTo(ctx, to)
}

// Outgoing returns the edges leaving a pretty URL or raw title
func (s *LinkGraphService) Outgoing(ctx context.Context, from string) ([]valueobjects.LinkEdge, error) {
	return s.edges.EdgesFrom(ctx, from)
}

func (s *LinkGraphService) inDocNamespace(title string) bool {
	return namespaceOf(title) == s.codec.Namespace()
}

func namespaceOf(title string) string {
	for i := 0; i < len(title); i++ {
		if title[i] == ':' {
			return title[:i]
		}
	}
	return ""
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func union(a, b []string) []string {
	out := dedupe(append(append([]string(nil), a...), b...))
	sort.Strings(out)
	return out
}
