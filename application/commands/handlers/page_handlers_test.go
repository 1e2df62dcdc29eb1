package handlers

import (
	"context"
	"errors"
	"testing"

	"ponydocs/application/commands"
	"ponydocs/application/commands/bus"
	"ponydocs/application/services"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockEngine is a mock implementation of PageEngine
type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) SavePage(ctx context.Context, req services.SaveRequest) (*services.SaveResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SaveResult), args.Error(1)
}

func (m *mockEngine) DeletePage(ctx context.Context, title string) error {
	args := m.Called(ctx, title)
	return args.Error(0)
}

func (m *mockEngine) RemoveVersionTags(ctx context.Context, title, product string, versions []string) ([]string, error) {
	args := m.Called(ctx, title, product, versions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func newBus(t *testing.T, engine PageEngine) *bus.CommandBus {
	t.Helper()
	h := NewPageCommandHandler(engine, zap.NewNop())
	b := bus.NewCommandBus(bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, b.Register(commands.SavePageCommand{}, bus.Handle(h.HandleSave)))
	require.NoError(t, b.Register(commands.DeletePageCommand{}, bus.Handle(h.HandleDelete)))
	require.NoError(t, b.Register(commands.RemoveVersionTagsCommand{}, bus.Handle(h.HandleRemoveTags)))
	return b
}

func TestHandleSave_PassesEditContext(t *testing.T) {
	// Arrange
	engine := new(mockEngine)
	want := &services.SaveResult{Title: "Documentation:Acme:Guide:Intro:1.0", Created: true}
	engine.On("SavePage", mock.Anything, mock.MatchedBy(func(req services.SaveRequest) bool {
		return req.Title == "Documentation:Acme:Guide:Intro:1.0" &&
			req.Context.Product() == "Acme" &&
			req.Context.Manual() == "Guide" &&
			req.Context.SelectedVersion("Acme") == "1.0"
	})).Return(want, nil)

	// Act
	result, err := newBus(t, engine).Dispatch(context.Background(), commands.SavePageCommand{
		Title:   "Documentation:Acme:Guide:Intro:1.0",
		Content: "Hello",
		Context: commands.EditContext{Product: "Acme", Manual: "Guide", Version: "1.0"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, want, result)
	engine.AssertExpectations(t)
}

func TestHandleSave_RejectsInvalidTitle(t *testing.T) {
	engine := new(mockEngine)

	_, err := newBus(t, engine).Dispatch(context.Background(), commands.SavePageCommand{
		Title: "Documentation:[[Bad]]",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, bus.ErrValidationFailed))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeValidation))
	engine.AssertNotCalled(t, "SavePage", mock.Anything, mock.Anything)
}

func TestHandleSave_PropagatesConflict(t *testing.T) {
	engine := new(mockEngine)
	conflict := pkgerrors.NewVersionConflictError("Documentation:Acme:Guide:Intro:1.0", []string{"2.0"})
	engine.On("SavePage", mock.Anything, mock.Anything).Return(nil, conflict)

	_, err := newBus(t, engine).Dispatch(context.Background(), commands.SavePageCommand{
		Title: "Documentation:Acme:Guide:Intro:2.0",
	})

	assert.ErrorIs(t, err, pkgerrors.ErrVersionConflict)
}

func TestHandleDelete(t *testing.T) {
	engine := new(mockEngine)
	engine.On("DeletePage", mock.Anything, "Documentation:Acme:Guide:Intro:1.0").Return(nil)

	err := newBus(t, engine).Send(context.Background(), commands.DeletePageCommand{Title: "Documentation:Acme:Guide:Intro:1.0"})

	require.NoError(t, err)
	engine.AssertExpectations(t)
}

func TestHandleRemoveTags(t *testing.T) {
	engine := new(mockEngine)
	engine.On("RemoveVersionTags", mock.Anything, "Documentation:Acme:Guide:Intro:1.0", "Acme", []string{"2.0"}).
		Return([]string{"2.0"}, nil)

	result, err := newBus(t, engine).Dispatch(context.Background(), commands.RemoveVersionTagsCommand{
		Title:    "Documentation:Acme:Guide:Intro:1.0",
		Product:  "Acme",
		Versions: []string{"2.0"},
	})

	require.NoError(t, err)
	assert.Equal(t, &RemoveTagsResult{Title: "Documentation:Acme:Guide:Intro:1.0", Removed: []string{"2.0"}}, result)
}

func TestHandleRemoveTags_RequiresVersions(t *testing.T) {
	engine := new(mockEngine)

	_, err := newBus(t, engine).Dispatch(context.Background(), commands.RemoveVersionTagsCommand{
		Title:   "Documentation:Acme:Guide:Intro:1.0",
		Product: "Acme",
	})

	assert.ErrorIs(t, err, bus.ErrValidationFailed)
	engine.AssertNotCalled(t, "RemoveVersionTags", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCommandBus_UnregisteredCommand(t *testing.T) {
	b := bus.NewCommandBus()

	_, err := b.Dispatch(context.Background(), commands.DeletePageCommand{Title: "x"})
	assert.ErrorIs(t, err, bus.ErrHandlerNotFound)

	h := NewPageCommandHandler(new(mockEngine), zap.NewNop())
	require.NoError(t, b.Register(commands.DeletePageCommand{}, bus.Handle(h.HandleDelete)))
	assert.Error(t, b.Register(commands.DeletePageCommand{}, bus.Handle(h.HandleDelete)))
}
