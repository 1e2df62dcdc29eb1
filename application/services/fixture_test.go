package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"ponydocs/domain/config"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/infrastructure/persistence/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClock is a settable clock shared by the cache and the navigation service
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// tagGate pauses the first tag lookup for one sort key prefix after it has
// read the index, until the test opens it
type tagGate struct {
	mu      sync.Mutex
	prefix  string
	reached chan struct{}
	open    chan struct{}
}

// Arm pauses the next lookup for prefix. reached is closed once a lookup
// is paused; open lets it return.
func (g *tagGate) Arm(prefix string) (reached <-chan struct{}, open func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prefix = prefix
	g.reached = make(chan struct{})
	g.open = make(chan struct{})
	openCh := g.open
	var once sync.Once
	return g.reached, func() { once.Do(func() { close(openCh) }) }
}

func (g *tagGate) pause(prefix string) {
	g.mu.Lock()
	if g.prefix == "" || g.prefix != prefix {
		g.mu.Unlock()
		return
	}
	g.prefix = ""
	reached, open := g.reached, g.open
	g.mu.Unlock()

	close(reached)
	<-open
}

// waitFor fails the test when ch is not closed in time
func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the paused tag lookup")
	}
}

// gatedTagIndex is the memory tag index with a tagGate on lookups
type gatedTagIndex struct {
	*memory.TagIndex
	gate *tagGate
}

func (x gatedTagIndex) FindPagesByVersionTag(ctx context.Context, product, version, sortKeyPrefix string) ([]string, error) {
	titles, err := x.TagIndex.FindPagesByVersionTag(ctx, product, version, sortKeyPrefix)
	x.gate.pause(sortKeyPrefix)
	return titles, err
}

// countingMetrics counts cache lookups, rebuilds and resolutions per kind
type countingMetrics struct {
	mu          sync.Mutex
	misses      map[string]int
	rebuilds    map[string]int
	resolutions map[string]int
	conflicts   int
	links       int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		misses:      make(map[string]int),
		rebuilds:    make(map[string]int),
		resolutions: make(map[string]int),
	}
}

func (m *countingMetrics) CacheHit(string) {}

func (m *countingMetrics) CacheMiss(kind string) {
	m.mu.Lock()
	m.misses[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) Misses(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.misses[kind]
}

func (m *countingMetrics) CacheRebuild(kind string, _ time.Duration, _ error) {
	m.mu.Lock()
	m.rebuilds[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) LinksReplaced(n int) {
	m.mu.Lock()
	m.links += n
	m.mu.Unlock()
}

func (m *countingMetrics) VersionConflict() {
	m.mu.Lock()
	m.conflicts++
	m.mu.Unlock()
}

func (m *countingMetrics) Resolution(kind string) {
	m.mu.Lock()
	m.resolutions[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) Rebuilds(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuilds[kind]
}

type fixture struct {
	engine  *DocEngine
	catalog *CatalogService
	navs    *NavigationService
	tocs    *TOCService
	links   *LinkGraphService
	pages   *memory.PageStore
	tags    *memory.TagIndex
	gate    *tagGate
	edges   *memory.EdgeStore
	metrics *countingMetrics
	clock   *fakeClock
	codec   *valueobjects.Codec
}

// newFixture wires the engine over memory adapters the way the container does
func newFixture(t *testing.T, autoCreate bool) *fixture {
	t.Helper()

	cfg := config.DefaultDomainConfig()
	cfg.AutoCreateOnEdit = autoCreate
	codec := valueobjects.NewCodec(cfg)
	logger := zap.NewNop()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	metrics := newCountingMetrics()

	pages := memory.NewPageStore()
	tags := memory.NewTagIndex()
	gate := &tagGate{}
	gated := gatedTagIndex{TagIndex: tags, gate: gate}
	edges := memory.NewEdgeStore()
	cache := memory.NewCache(memory.WithClock(clock.Now))
	t.Cleanup(cache.Close)
	bus := memory.NewEventBus(nil, logger)

	catalog := NewCatalogService(pages, codec, logger)
	tocs := NewTOCService(pages, gated, cache, codec, time.Hour, metrics, logger)
	navs := NewNavigationService(catalog, tocs, cache, codec, time.Hour, metrics, logger, WithNavigationClock(clock.Now))
	locker := memory.NewKeyedLocker()
	links := NewLinkGraphService(edges, locker, codec, time.Second, metrics, logger)
	detector := NewDuplicateDetector(catalog, gated, locker, codec, time.Second, logger)
	resolver := NewRequestResolver(catalog, tocs, gated, codec, cfg, metrics, logger)
	creator := NewTopicAutoCreator(catalog, pages, gated, codec, logger)
	require.NoError(t, NewInvalidationHandler(catalog, navs, tocs, logger).Register(bus))

	engine := NewDocEngine(pages, gated, bus, catalog, links, tocs, navs, detector, resolver, creator, codec, cfg, metrics, logger)

	return &fixture{
		engine:  engine,
		catalog: catalog,
		navs:    navs,
		tocs:    tocs,
		links:   links,
		pages:   pages,
		tags:    tags,
		gate:    gate,
		edges:   edges,
		metrics: metrics,
		clock:   clock,
		codec:   codec,
	}
}

func (f *fixture) save(t *testing.T, title, content string) *SaveResult {
	t.Helper()
	res, err := f.engine.SavePage(context.Background(), SaveRequest{Title: title, Content: content})
	require.NoError(t, err, "saving %s", title)
	return res
}

// seedAcme stores the Acme catalog: 1.0 and 2.0 released, 3.0 unreleased,
// one manual and an Intro topic tagged for 1.0 and 2.0
func (f *fixture) seedAcme(t *testing.T) {
	t.Helper()
	f.save(t, "Documentation:Products", "{{#product:Acme|Acme Server|The server}}")
	f.save(t, "Documentation:Acme:Versions",
		"{{#version:1.0|released}}\n{{#version:2.0|released}}\n{{#version:3.0|unreleased}}")
	f.save(t, "Documentation:Acme:Manuals", "{{#manual:Guide|User Guide|basics|How to use Acme}}")
	f.save(t, "Documentation:Acme:Guide:Intro:1.0",
		"Welcome. Continue with [[Documentation:Guide:Setup]].\n[[Category:V:Acme:1.0]]\n[[Category:V:Acme:2.0]]")
}

const acmeTOC = "* Basics\n{{#topic:Intro}}\n{{#topic:Setup}}\n[[Category:V:Acme:1.0]]\n[[Category:V:Acme:2.0]]"
