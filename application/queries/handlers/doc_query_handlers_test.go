package handlers

import (
	"context"
	"testing"

	"ponydocs/application/queries"
	querybus "ponydocs/application/queries/bus"
	"ponydocs/application/services"
	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
	pkgerrors "ponydocs/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockReader is a mock implementation of DocReader
type mockReader struct {
	mock.Mock
}

func (m *mockReader) ResolveRequestToPage(ctx context.Context, path string, dc valueobjects.DocContext) services.Resolution {
	return m.Called(ctx, path, dc).Get(0).(services.Resolution)
}

func (m *mockReader) GetNavigation(ctx context.Context, product, version string, dc valueobjects.DocContext) (entities.NavCacheEntry, error) {
	args := m.Called(ctx, product, version, dc)
	return args.Get(0).(entities.NavCacheEntry), args.Error(1)
}

func (m *mockReader) GetTOC(ctx context.Context, product, manual, version string, dc valueobjects.DocContext) (*entities.TOC, error) {
	args := m.Called(ctx, product, manual, version, dc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TOC), args.Error(1)
}

func (m *mockReader) TranslateLinkToken(token string, dc valueobjects.DocContext) (string, error) {
	args := m.Called(token, dc)
	return args.String(0), args.Error(1)
}

func (m *mockReader) Backlinks(ctx context.Context, to string) ([]valueobjects.LinkEdge, error) {
	args := m.Called(ctx, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valueobjects.LinkEdge), args.Error(1)
}

func (m *mockReader) Products(ctx context.Context) ([]entities.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.Product), args.Error(1)
}

func (m *mockReader) Versions(ctx context.Context, product string) ([]valueobjects.VersionRecord, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valueobjects.VersionRecord), args.Error(1)
}

func newQueryBus(t *testing.T, reader DocReader) *querybus.QueryBus {
	t.Helper()
	h := NewDocQueryHandler(reader, zap.NewNop())
	b := querybus.NewQueryBus(nil)
	require.NoError(t, b.Register(queries.ResolveRequestQuery{}, querybus.Handle(h.HandleResolve)))
	require.NoError(t, b.Register(queries.TranslateLinkQuery{}, querybus.Handle(h.HandleTranslate)))
	require.NoError(t, b.Register(queries.BacklinksQuery{}, querybus.Handle(h.HandleBacklinks)))
	require.NoError(t, b.Register(queries.ListVersionsQuery{}, querybus.Handle(h.HandleVersions)))
	return b
}

func TestHandleResolve_ConvertsAmbient(t *testing.T) {
	reader := new(mockReader)
	want := services.Resolution{Kind: services.ResolutionPage, Title: "Documentation:Acme:Guide:Intro:1.0", Version: "1.0"}
	reader.On("ResolveRequestToPage", mock.Anything, "Documentation/Acme/Guide", mock.MatchedBy(func(dc valueobjects.DocContext) bool {
		return dc.Product() == "Acme" && dc.CurrentVersion() == "1.0"
	})).Return(want)

	result, err := newQueryBus(t, reader).Ask(context.Background(), queries.ResolveRequestQuery{
		Path:    "Documentation/Acme/Guide",
		Ambient: queries.Ambient{Product: "Acme", Version: "1.0"},
	})

	require.NoError(t, err)
	assert.Equal(t, want, result)
	reader.AssertExpectations(t)
}

func TestHandleTranslate(t *testing.T) {
	reader := new(mockReader)
	reader.On("TranslateLinkToken", "Documentation:Setup", mock.Anything).Return("", pkgerrors.NewAmbiguousLinkError("Documentation:Setup", "manual"))
	reader.On("TranslateLinkToken", "Documentation:Acme:Guide:Intro:1.0", mock.Anything).Return("Documentation/Acme/1.0/Guide/Intro", nil)
	b := newQueryBus(t, reader)

	_, err := b.Ask(context.Background(), queries.TranslateLinkQuery{Token: "Documentation:Setup"})
	assert.ErrorIs(t, err, pkgerrors.ErrAmbiguousLink)

	result, err := b.Ask(context.Background(), queries.TranslateLinkQuery{Token: "Documentation:Acme:Guide:Intro:1.0"})
	require.NoError(t, err)
	assert.Equal(t, &TranslateResult{Token: "Documentation:Acme:Guide:Intro:1.0", URL: "Documentation/Acme/1.0/Guide/Intro"}, result)
}

func TestHandleBacklinks_EmptyIsNotNil(t *testing.T) {
	reader := new(mockReader)
	reader.On("Backlinks", mock.Anything, "Documentation/Acme/1.0/Guide/Intro").Return(nil, nil)

	result, err := newQueryBus(t, reader).Ask(context.Background(), queries.BacklinksQuery{Target: "Documentation/Acme/1.0/Guide/Intro"})

	require.NoError(t, err)
	links := result.(*BacklinksResult).Links
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestQueryBus_Validation(t *testing.T) {
	reader := new(mockReader)
	b := newQueryBus(t, reader)

	_, err := b.Ask(context.Background(), queries.ListVersionsQuery{})
	assert.ErrorIs(t, err, querybus.ErrQueryValidation)

	_, err = b.Ask(context.Background(), queries.ListProductsQuery{})
	assert.Error(t, err, "unregistered query")
	reader.AssertNotCalled(t, "Versions", mock.Anything, mock.Anything)
}
