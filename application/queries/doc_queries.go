package queries

import (
	"ponydocs/pkg/utils"
)

// Ambient is the caller's documentation state attached to a query
type Ambient struct {
	Product string `json:"product,omitempty"`
	Manual  string `json:"manual,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Version string `json:"version,omitempty"`
}

// ResolveRequestQuery maps a request path onto a page
type ResolveRequestQuery struct {
	Path    string  `json:"path" validate:"required,max=1024"`
	Ambient Ambient `json:"ambient"`
}

// Validate checks the query
func (q ResolveRequestQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetNavigationQuery returns the manual navigation of a product version
type GetNavigationQuery struct {
	Product string  `json:"product" validate:"required,max=100"`
	Version string  `json:"version" validate:"required,max=50"`
	Ambient Ambient `json:"ambient"`
}

// Validate checks the query
func (q GetNavigationQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetTOCQuery returns the table of contents of a manual version
type GetTOCQuery struct {
	Product string  `json:"product" validate:"required,max=100"`
	Manual  string  `json:"manual" validate:"required,max=100"`
	Version string  `json:"version" validate:"required,max=50"`
	Ambient Ambient `json:"ambient"`
}

// Validate checks the query
func (q GetTOCQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// TranslateLinkQuery turns a link token into a pretty URL
type TranslateLinkQuery struct {
	Token   string  `json:"token" validate:"required,max=512"`
	Ambient Ambient `json:"ambient"`
}

// Validate checks the query
func (q TranslateLinkQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// BacklinksQuery lists pages linking to a pretty URL or title
type BacklinksQuery struct {
	Target string `json:"target" validate:"required,max=1024"`
}

// Validate checks the query
func (q BacklinksQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListProductsQuery lists the documented products
type ListProductsQuery struct{}

// Validate checks the query
func (q ListProductsQuery) Validate() error { return nil }

// ListVersionsQuery lists the versions of a product
type ListVersionsQuery struct {
	Product string `json:"product" validate:"required,max=100"`
}

// Validate checks the query
func (q ListVersionsQuery) Validate() error {
	return utils.ValidateStruct(q)
}
