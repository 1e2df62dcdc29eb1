package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Overlay is the optional YAML file of engine tunables. Zero values leave
// the environment's setting in place.
type Overlay struct {
	Namespace        string        `yaml:"namespace"`
	LandingURL       string        `yaml:"landingUrl"`
	LatestDocURL     string        `yaml:"latestDocUrl"`
	NavCacheTTL      time.Duration `yaml:"navCacheTtl"`
	TOCCacheTTL      time.Duration `yaml:"tocCacheTtl"`
	AutoCreateOnEdit *bool         `yaml:"autoCreateOnEdit"`
}

// LoadOverlay reads and validates an overlay file
func LoadOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overlay Overlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := overlay.Validate(); err != nil {
		return nil, err
	}
	return &overlay, nil
}

// Validate rejects negative TTLs
func (o *Overlay) Validate() error {
	if o.NavCacheTTL < 0 || o.TOCCacheTTL < 0 {
		return fmt.Errorf("overlay cache TTLs must not be negative")
	}
	return nil
}

// ApplyOverlay copies the overlay's set fields onto c
func (c *Config) ApplyOverlay(o *Overlay) {
	if o == nil {
		return
	}
	if o.Namespace != "" {
		if c.LandingURL == c.DocNamespace {
			c.LandingURL = o.Namespace
		}
		c.DocNamespace = o.Namespace
	}
	if o.LandingURL != "" {
		c.LandingURL = o.LandingURL
	}
	if o.LatestDocURL != "" {
		c.LatestDocURL = o.LatestDocURL
	}
	if o.NavCacheTTL > 0 {
		c.NavCacheTTL = o.NavCacheTTL
	}
	if o.TOCCacheTTL > 0 {
		c.TOCCacheTTL = o.TOCCacheTTL
	}
	if o.AutoCreateOnEdit != nil {
		c.AutoCreateOnEdit = *o.AutoCreateOnEdit
	}
}
