package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"ponydocs/domain/core/entities"
	"ponydocs/infrastructure/persistence/memory"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubPages fails or stalls on Get and delegates everything else
type stubPages struct {
	*memory.PageStore
	err   error
	stall bool
}

func (s *stubPages) Get(ctx context.Context, title string) (*entities.Page, error) {
	if s.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.PageStore.Get(ctx, title)
}

func TestPageStore_TimeoutBecomesTimeoutError(t *testing.T) {
	guard := NewGuard(DefaultSettings("pages", 10*time.Millisecond), zap.NewNop())
	store := NewPageStore(&stubPages{PageStore: memory.NewPageStore(), stall: true}, guard)

	_, err := store.Get(context.Background(), "Documentation:Acme:Versions")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout))
}

func TestPageStore_BreakerOpensAfterFailures(t *testing.T) {
	settings := DefaultSettings("pages", time.Second)
	settings.MinRequests = 3
	guard := NewGuard(settings, zap.NewNop())
	store := NewPageStore(&stubPages{PageStore: memory.NewPageStore(), err: errors.New("connection reset")}, guard)

	for i := 0; i < 3; i++ {
		_, err := store.Get(context.Background(), "x")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, guard.State())

	_, err := store.Get(context.Background(), "x")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}

func TestPageStore_NotFoundDoesNotTrip(t *testing.T) {
	settings := DefaultSettings("pages", time.Second)
	settings.MinRequests = 1
	guard := NewGuard(settings, zap.NewNop())
	store := NewPageStore(memory.NewPageStore(), guard)

	for i := 0; i < 5; i++ {
		_, err := store.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, pkgerrors.ErrPageNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, guard.State())
}

func TestPageStore_PassesThrough(t *testing.T) {
	ctx := context.Background()
	guard := NewGuard(DefaultSettings("pages", time.Second), zap.NewNop())
	store := NewPageStore(memory.NewPageStore(), guard)

	require.NoError(t, store.Save(ctx, "Documentation:Products", "{{#product:Acme|Acme Server|}}", "", true))
	ok, err := store.Exists(ctx, "Documentation:Products")
	require.NoError(t, err)
	assert.True(t, ok)

	titles, err := store.ListTitles(ctx, "Documentation:")
	require.NoError(t, err)
	assert.Equal(t, []string{"Documentation:Products"}, titles)
}
