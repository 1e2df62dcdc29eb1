package valueobjects

import (
	"fmt"
	"strings"
)

// VersionStatus is the release state of a product version
type VersionStatus string

const (
	VersionReleased   VersionStatus = "released"
	VersionUnreleased VersionStatus = "unreleased"
	VersionPreview    VersionStatus = "preview"
)

// ParseVersionStatus reads a status, case-insensitively
func ParseVersionStatus(s string) (VersionStatus, error) {
	switch VersionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case VersionReleased:
		return VersionReleased, nil
	case VersionUnreleased:
		return VersionUnreleased, nil
	case VersionPreview:
		return VersionPreview, nil
	}
	return "", fmt.Errorf("unknown version status %q", s)
}

// VersionRecord is one defined version of a product. OrdinalRank orders
// versions oldest first.
type VersionRecord struct {
	Product     string        `json:"product"`
	ShortName   string        `json:"shortName"`
	Status      VersionStatus `json:"status"`
	OrdinalRank int           `json:"ordinalRank"`
}

// IsReleased reports whether the version is released
func (v VersionRecord) IsReleased() bool {
	return v.Status == VersionReleased
}

// VersionTag is one [[Category:V:product:version]] membership tag
type VersionTag struct {
	Product string `json:"product"`
	Version string `json:"version"`
}

// String renders the tag as stored in the tag index: V:product:version
func (t VersionTag) String() string {
	return "V:" + t.Product + titleDelimiter + t.Version
}

// VersionConflict describes another page already owning versions
type VersionConflict struct {
	ConflictingTitle string   `json:"conflictingTitle"`
	Versions         []string `json:"versions"`
}

// LinkEdge is one directed reference between two canonical titles
type LinkEdge struct {
	FromTitle string `json:"from"`
	ToTitle   string `json:"to"`
}
