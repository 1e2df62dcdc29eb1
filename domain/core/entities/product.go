package entities

import (
	"strings"
)

// Product is one documented product
type Product struct {
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName"`
	Description string `json:"description"`
}

// Manual is one manual of a product, as declared on the product's manual
// list page. Static manuals map straight to a landing page for the
// versions in StaticVersions instead of walking a table of contents.
type Manual struct {
	Product        string   `json:"product"`
	ShortName      string   `json:"shortName"`
	LongName       string   `json:"longName"`
	Categories     []string `json:"categories,omitempty"`
	Description    string   `json:"description,omitempty"`
	Static         bool     `json:"static"`
	StaticVersions []string `json:"staticVersions,omitempty"`
}

// CategoriesString joins categories the way the navigation payload expects
func (m Manual) CategoriesString() string {
	return strings.Join(m.Categories, ",")
}

// IsStaticFor reports whether the manual is served statically at version
func (m Manual) IsStaticFor(version string) bool {
	if !m.Static {
		return false
	}
	for _, v := range m.StaticVersions {
		if v == version {
			return true
		}
	}
	return false
}
