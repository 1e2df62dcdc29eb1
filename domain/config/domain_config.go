package config

// DomainConfig holds the naming conventions the documentation engine relies on
type DomainConfig struct {
	// Namespace every managed page lives in
	Namespace string

	// LatestToken is the symbolic version resolved to the latest released version
	LatestToken string

	// Page name suffixes under {Namespace}:{Product}:
	VersionsPage string
	ManualsPage  string

	// ProductsPage lives directly under the namespace
	ProductsPage string

	// TOCMarker separates manual and version in TOC titles: {Manual}TOC{Version}
	TOCMarker string

	// Redirect targets handed back to the host
	LandingURL   string
	LatestDocURL string

	// AutoCreateOnEdit creates missing topics referenced by 3 and 4 segment links on save
	AutoCreateOnEdit bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		Namespace:        "Documentation",
		LatestToken:      "latest",
		VersionsPage:     "Versions",
		ManualsPage:      "Manuals",
		ProductsPage:     "Products",
		TOCMarker:        "TOC",
		LandingURL:       "Documentation",
		LatestDocURL:     "Special:SpecialLatestDoc",
		AutoCreateOnEdit: false,
	}
}

// WithNamespace returns a copy using a different documentation namespace.
// The landing URL follows the namespace unless it was customised.
func (c *DomainConfig) WithNamespace(namespace string) *DomainConfig {
	clone := *c
	if clone.LandingURL == clone.Namespace {
		clone.LandingURL = namespace
	}
	clone.Namespace = namespace
	return &clone
}
