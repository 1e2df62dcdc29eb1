package commands

import (
	"ponydocs/pkg/utils"
)

// MaxContentLength bounds a single page body
const MaxContentLength = 2 << 20

// EditContext is the editor's ambient documentation state
type EditContext struct {
	Product string `json:"product,omitempty"`
	Manual  string `json:"manual,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Version string `json:"version,omitempty"`
}

// SavePageCommand stores a page through the full save pipeline
type SavePageCommand struct {
	Title   string      `json:"title" validate:"required,max=255,wikititle"`
	Content string      `json:"content" validate:"max=2097152"`
	Summary string      `json:"summary" validate:"max=500"`
	Context EditContext `json:"context"`
}

// Validate checks the command
func (cmd SavePageCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}

// DeletePageCommand removes a page, its tags and its links
type DeletePageCommand struct {
	Title string `json:"title" validate:"required,max=255,wikititle"`
}

// Validate checks the command
func (cmd DeletePageCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}

// RemoveVersionTagsCommand strips version tags from a page so another page
// can claim them
type RemoveVersionTagsCommand struct {
	Title    string   `json:"title" validate:"required,max=255,wikititle"`
	Product  string   `json:"product" validate:"required,max=100"`
	Versions []string `json:"versions" validate:"required,min=1,dive,required,max=50"`
}

// Validate checks the command
func (cmd RemoveVersionTagsCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}
