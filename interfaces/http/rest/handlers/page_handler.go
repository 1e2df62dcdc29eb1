package handlers

import (
	"net/http"

	"ponydocs/application/commands"
	"ponydocs/application/commands/bus"
	"ponydocs/pkg/common"
	pkgerrors "ponydocs/pkg/errors"
	"ponydocs/pkg/utils"

	"go.uber.org/zap"
)

// maxBodyBytes bounds a page save request: the content plus JSON overhead
const maxBodyBytes = commands.MaxContentLength + 64<<10

// PageHandler serves the page write endpoints
type PageHandler struct {
	commandBus *bus.CommandBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(commandBus *bus.CommandBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		commandBus: commandBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// SavePageRequest represents the request body for saving a page
type SavePageRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content"`
	Summary string `json:"summary,omitempty" validate:"max=500"`
}

// RemoveTagsRequest represents the request body for removing version tags
type RemoveTagsRequest struct {
	Title    string   `json:"title" validate:"required,max=255"`
	Product  string   `json:"product" validate:"required,max=100"`
	Versions []string `json:"versions" validate:"required,min=1,max=50,dive,required,max=50"`
}

// SavePage handles PUT /pages
func (h *PageHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	var req SavePageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	a := ambient(r)
	result, err := h.commandBus.Dispatch(r.Context(), commands.SavePageCommand{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
		Context: commands.EditContext{
			Product: a.Product,
			Manual:  a.Manual,
			Topic:   a.Topic,
			Version: a.Version,
		},
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// DeletePage handles DELETE /pages?title=
func (h *PageHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if err := h.commandBus.Send(r.Context(), commands.DeletePageCommand{Title: title}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Debug("Page deleted over HTTP", zap.String("title", title))
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTags handles POST /pages/remove-tags
func (h *PageHandler) RemoveTags(w http.ResponseWriter, r *http.Request) {
	var req RemoveTagsRequest
	if err := common.ParseJSONBody(r, &req, 64<<10); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Dispatch(r.Context(), commands.RemoveVersionTagsCommand{
		Title:    req.Title,
		Product:  req.Product,
		Versions: req.Versions,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
