package observability

import "time"

// Recorder is the engine counter interface every sink implements
type Recorder interface {
	CacheHit(kind string)
	CacheMiss(kind string)
	CacheRebuild(kind string, d time.Duration, err error)
	LinksReplaced(count int)
	VersionConflict()
	Resolution(kind string)
}

// Fanout forwards every counter to each recorder
type Fanout []Recorder

func (f Fanout) CacheHit(kind string) {
	for _, r := range f {
		r.CacheHit(kind)
	}
}

func (f Fanout) CacheMiss(kind string) {
	for _, r := range f {
		r.CacheMiss(kind)
	}
}

func (f Fanout) CacheRebuild(kind string, d time.Duration, err error) {
	for _, r := range f {
		r.CacheRebuild(kind, d, err)
	}
}

func (f Fanout) LinksReplaced(count int) {
	for _, r := range f {
		r.LinksReplaced(count)
	}
}

func (f Fanout) VersionConflict() {
	for _, r := range f {
		r.VersionConflict()
	}
}

func (f Fanout) Resolution(kind string) {
	for _, r := range f {
		r.Resolution(kind)
	}
}
