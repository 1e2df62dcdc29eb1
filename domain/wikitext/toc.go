package wikitext

import (
	"regexp"
	"strings"
)

var (
	topicLinePattern = regexp.MustCompile(`\{\{#topic:\s*([^}]*)\}\}`)
	headingPattern   = regexp.MustCompile(`^\s*=.*=\s*$`)
)

// TOCLine is one meaningful line of a TOC page
type TOCLine struct {
	Section bool
	Text    string
	// WikiTopic is the topic title segment, set for topic lines only
	WikiTopic string
}

// ParseTOC reads a TOC page. {{#topic:Name}} lines are topics; any other
// non-empty line that is neither a heading nor a version tag is a
// section header.
func ParseTOC(content string) []TOCLine {
	var lines []TOCLine
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || headingPattern.MatchString(line) {
			continue
		}
		if versionTagPattern.MatchString(line) && strings.TrimSpace(versionTagPattern.ReplaceAllString(line, "")) == "" {
			continue
		}
		if m := topicLinePattern.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			if name == "" {
				continue
			}
			lines = append(lines, TOCLine{Text: name, WikiTopic: WikiName(name)})
			continue
		}
		lines = append(lines, TOCLine{Section: true, Text: strings.TrimLeft(line, "*# ")})
	}
	return lines
}

// TOCTopics returns the topic lines of a TOC page
func TOCTopics(content string) []TOCLine {
	var topics []TOCLine
	for _, l := range ParseTOC(content) {
		if !l.Section {
			topics = append(topics, l)
		}
	}
	return topics
}

// NewTopicContent is the body of an auto-created topic
func NewTopicContent(heading, product string, versions []string) string {
	return AppendVersionTags("= "+heading+" =\n", product, versions)
}
