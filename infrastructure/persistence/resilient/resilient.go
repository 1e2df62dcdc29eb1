// Package resilient decorates the storage ports with a per-call timeout and
// a circuit breaker, so a stalled store surfaces as Timeout or Unavailable
// instead of hanging requests.
package resilient

import (
	"context"
	"errors"
	"time"

	"ponydocs/application/ports"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Settings configures a guard
type Settings struct {
	Name             string
	Timeout          time.Duration
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultSettings returns the breaker defaults for a store
func DefaultSettings(name string, timeout time.Duration) Settings {
	return Settings{
		Name:             name,
		Timeout:          timeout,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		OpenTimeout:      30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Guard runs store calls under a timeout and a circuit breaker
type Guard struct {
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

// NewGuard creates a guard
func NewGuard(s Settings, logger *zap.Logger) *Guard {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})

	return &Guard{name: s.Name, timeout: s.Timeout, cb: cb}
}

// State reports the breaker state
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// isSuccessful keeps expected outcomes such as a missing page from
// tripping the breaker
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if pkgerrors.GetDomainError(err) != nil {
		return true
	}
	return pkgerrors.IsConflict(err) || errors.Is(err, context.Canceled)
}

func call[T any](ctx context.Context, g *Guard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	switch {
	case err == nil:
		return out.(T), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return zero, pkgerrors.NewUnavailableError(g.name).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return zero, pkgerrors.NewTimeoutError(g.name + "." + op).WithCause(err)
	default:
		return zero, err
	}
}

func exec(ctx context.Context, g *Guard, op string, fn func(ctx context.Context) error) error {
	_, err := call(ctx, g, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// PageStore guards a ports.PageStore
type PageStore struct {
	next  ports.PageStore
	guard *Guard
}

// NewPageStore wraps next
func NewPageStore(next ports.PageStore, guard *Guard) *PageStore {
	return &PageStore{next: next, guard: guard}
}

func (s *PageStore) Get(ctx context.Context, title string) (*entities.Page, error) {
	return call(ctx, s.guard, "Get", func(ctx context.Context) (*entities.Page, error) {
		return s.next.Get(ctx, title)
	})
}

func (s *PageStore) Exists(ctx context.Context, title string) (bool, error) {
	return call(ctx, s.guard, "Exists", func(ctx context.Context) (bool, error) {
		return s.next.Exists(ctx, title)
	})
}

func (s *PageStore) Save(ctx context.Context, title, content, summary string, isNew bool) error {
	return exec(ctx, s.guard, "Save", func(ctx context.Context) error {
		return s.next.Save(ctx, title, content, summary, isNew)
	})
}

func (s *PageStore) Delete(ctx context.Context, title string) error {
	return exec(ctx, s.guard, "Delete", func(ctx context.Context) error {
		return s.next.Delete(ctx, title)
	})
}

func (s *PageStore) ListTitles(ctx context.Context, prefix string) ([]string, error) {
	return call(ctx, s.guard, "ListTitles", func(ctx context.Context) ([]string, error) {
		return s.next.ListTitles(ctx, prefix)
	})
}

// TagIndex guards a ports.TagIndex
type TagIndex struct {
	next  ports.TagIndex
	guard *Guard
}

// NewTagIndex wraps next
func NewTagIndex(next ports.TagIndex, guard *Guard) *TagIndex {
	return &TagIndex{next: next, guard: guard}
}

func (x *TagIndex) FindPagesByVersionTag(ctx context.Context, product, version, sortKeyPrefix string) ([]string, error) {
	return call(ctx, x.guard, "FindPagesByVersionTag", func(ctx context.Context) ([]string, error) {
		return x.next.FindPagesByVersionTag(ctx, product, version, sortKeyPrefix)
	})
}

func (x *TagIndex) SetPageTags(ctx context.Context, title, sortKey string, tags []valueobjects.VersionTag) error {
	return exec(ctx, x.guard, "SetPageTags", func(ctx context.Context) error {
		return x.next.SetPageTags(ctx, title, sortKey, tags)
	})
}

func (x *TagIndex) TagsOf(ctx context.Context, title string) ([]valueobjects.VersionTag, error) {
	return call(ctx, x.guard, "TagsOf", func(ctx context.Context) ([]valueobjects.VersionTag, error) {
		return x.next.TagsOf(ctx, title)
	})
}

func (x *TagIndex) RemovePage(ctx context.Context, title string) error {
	return exec(ctx, x.guard, "RemovePage", func(ctx context.Context) error {
		return x.next.RemovePage(ctx, title)
	})
}

// EdgeStore guards a ports.EdgeStore
type EdgeStore struct {
	next  ports.EdgeStore
	guard *Guard
}

// NewEdgeStore wraps next
func NewEdgeStore(next ports.EdgeStore, guard *Guard) *EdgeStore {
	return &EdgeStore{next: next, guard: guard}
}

func (s *EdgeStore) ReplaceEdges(ctx context.Context, fromTitles []string, edges []valueobjects.LinkEdge) error {
	return exec(ctx, s.guard, "ReplaceEdges", func(ctx context.Context) error {
		return s.next.ReplaceEdges(ctx, fromTitles, edges)
	})
}

func (s *EdgeStore) EdgesFrom(ctx context.Context, from string) ([]valueobjects.LinkEdge, error) {
	return call(ctx, s.guard, "EdgesFrom", func(ctx context.Context) ([]valueobjects.LinkEdge, error) {
		return s.next.EdgesFrom(ctx, from)
	})
}

func (s *EdgeStore) EdgesTo(ctx context.Context, to string) ([]valueobjects.LinkEdge, error) {
	return call(ctx, s.guard, "EdgesTo", func(ctx context.Context) ([]valueobjects.LinkEdge, error) {
		return s.next.EdgesTo(ctx, to)
	})
}
