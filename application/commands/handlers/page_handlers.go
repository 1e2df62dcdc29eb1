package handlers

import (
	"context"

	"go.uber.org/zap"

	"ponydocs/application/commands"
	"ponydocs/application/services"
	"ponydocs/domain/core/valueobjects"
)

// PageEngine is the slice of the engine the page commands need
type PageEngine interface {
	SavePage(ctx context.Context, req services.SaveRequest) (*services.SaveResult, error)
	DeletePage(ctx context.Context, title string) error
	RemoveVersionTags(ctx context.Context, title, product string, versions []string) ([]string, error)
}

// PageCommandHandler handles the page write commands
type PageCommandHandler struct {
	engine PageEngine
	logger *zap.Logger
}

// NewPageCommandHandler creates a new page command handler
func NewPageCommandHandler(engine PageEngine, logger *zap.Logger) *PageCommandHandler {
	return &PageCommandHandler{
		engine: engine,
		logger: logger,
	}
}

// RemoveTagsResult lists the versions a RemoveVersionTagsCommand removed
type RemoveTagsResult struct {
	Title   string   `json:"title"`
	Removed []string `json:"removed"`
}

// HandleSave executes the save page command
func (h *PageCommandHandler) HandleSave(ctx context.Context, cmd commands.SavePageCommand) (*services.SaveResult, error) {
	return h.engine.SavePage(ctx, services.SaveRequest{
		Title:   cmd.Title,
		Content: cmd.Content,
		Summary: cmd.Summary,
		Context: ToDocContext(cmd.Context),
	})
}

// HandleDelete executes the delete page command
func (h *PageCommandHandler) HandleDelete(ctx context.Context, cmd commands.DeletePageCommand) (struct{}, error) {
	return struct{}{}, h.engine.DeletePage(ctx, cmd.Title)
}

// HandleRemoveTags executes the remove version tags command
func (h *PageCommandHandler) HandleRemoveTags(ctx context.Context, cmd commands.RemoveVersionTagsCommand) (*RemoveTagsResult, error) {
	removed, err := h.engine.RemoveVersionTags(ctx, cmd.Title, cmd.Product, cmd.Versions)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		h.logger.Debug("No matching version tags to remove",
			zap.String("title", cmd.Title),
			zap.String("product", cmd.Product),
		)
	}
	return &RemoveTagsResult{Title: cmd.Title, Removed: removed}, nil
}

// ToDocContext converts an edit context into the engine's ambient state
func ToDocContext(ec commands.EditContext) valueobjects.DocContext {
	return valueobjects.NewDocContext(ec.Product).
		WithManual(ec.Manual).
		WithTopic(ec.Topic).
		WithSelectedVersion(ec.Product, ec.Version)
}
