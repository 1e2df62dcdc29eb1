package wikitext

import (
	"regexp"
	"strings"

	"ponydocs/domain/core/valueobjects"
)

var versionTagPattern = regexp.MustCompile(`(?i)\[\[Category:V:([A-Za-z0-9 _.-]*):([A-Za-z0-9 _.-]*)\]\]`)

// ExtractVersionTags returns the distinct [[Category:V:product:version]]
// tags of content, in order of appearance
func ExtractVersionTags(content string) []valueobjects.VersionTag {
	seen := make(map[valueobjects.VersionTag]struct{})
	var tags []valueobjects.VersionTag
	for _, m := range versionTagPattern.FindAllStringSubmatch(content, -1) {
		tag := valueobjects.VersionTag{
			Product: strings.TrimSpace(m[1]),
			Version: strings.TrimSpace(m[2]),
		}
		if tag.Product == "" || tag.Version == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// VersionsFor returns the tagged versions of one product
func VersionsFor(tags []valueobjects.VersionTag, product string) []string {
	var versions []string
	for _, t := range tags {
		if t.Product == product {
			versions = append(versions, t.Version)
		}
	}
	return versions
}

// FormatVersionTag renders a version tag as wiki markup
func FormatVersionTag(product, version string) string {
	return "[[Category:V:" + product + ":" + version + "]]"
}

// AppendVersionTags appends one tag line per version
func AppendVersionTags(content, product string, versions []string) string {
	var b strings.Builder
	b.WriteString(content)
	for _, v := range versions {
		b.WriteString("\n")
		b.WriteString(FormatVersionTag(product, v))
	}
	return b.String()
}

// StripVersionTags removes the tags of product for the given versions and
// reports how many were removed
func StripVersionTags(content, product string, versions []string) (string, int) {
	drop := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		drop[v] = struct{}{}
	}
	removed := 0
	out := versionTagPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := versionTagPattern.FindStringSubmatch(match)
		if strings.TrimSpace(m[1]) != product {
			return match
		}
		if _, ok := drop[strings.TrimSpace(m[2])]; !ok {
			return match
		}
		removed++
		return ""
	})
	return out, removed
}
