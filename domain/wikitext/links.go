// Package wikitext reads and writes the small subset of wiki markup the
// documentation engine depends on: links, version tags, catalog pages and
// table of contents pages.
package wikitext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var linkPattern = regexp.MustCompile(`\[\[([A-Za-z0-9,:._ -]*)(#[A-Za-z0-9 ._-]+)?(\|?([A-Za-z0-9,:.'_?!@/"()#$ -]*))\]\]`)

// Link is one [[target#anchor|text]] occurrence in page content
type Link struct {
	Raw    string
	Target string
	Anchor string
	Text   string
}

// ExtractLinks returns every link in content, in order of appearance.
// Version tags are not links and are skipped.
func ExtractLinks(content string) []Link {
	matches := linkPattern.FindAllStringSubmatch(content, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" || IsVersionTagTarget(target) {
			continue
		}
		links = append(links, Link{
			Raw:    m[0],
			Target: target,
			Anchor: strings.TrimPrefix(m[2], "#"),
			Text:   strings.TrimSpace(m[4]),
		})
	}
	return links
}

// LinkTargets returns the distinct link targets of content, in order of
// first appearance
func LinkTargets(content string) []string {
	seen := make(map[string]struct{})
	var targets []string
	for _, l := range ExtractLinks(content) {
		if _, ok := seen[l.Target]; ok {
			continue
		}
		seen[l.Target] = struct{}{}
		targets = append(targets, l.Target)
	}
	return targets
}

// IsVersionTagTarget reports whether a link target is a category tag
func IsVersionTagTarget(target string) bool {
	return strings.HasPrefix(strings.ToLower(target), "category:")
}

// WikiName strips characters that are not legal in a page title, the way
// topic display names become topic title segments
func WikiName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		i += size
		if isLegalTitleRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isLegalTitleRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x80 && r != utf8.RuneError:
		return true
	}
	return strings.ContainsRune(`%!"$&'()*,-./;=?@\^_`+"`"+`~+`, r)
}
