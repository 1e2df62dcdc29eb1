package entities

// TOCEntry is one line of a computed table of contents. Section headers
// have no topic; topic entries carry a link only when a page tagged for
// the TOC's version exists.
type TOCEntry struct {
	Section bool   `json:"section,omitempty"`
	Text    string `json:"text"`
	Topic   string `json:"topic,omitempty"`
	Title   string `json:"title,omitempty"`
	Link    string `json:"link,omitempty"`
	Level   int    `json:"level"`
}

// TOC is the computed table of contents of a manual at one version
type TOC struct {
	Product   string     `json:"product"`
	Manual    string     `json:"manual"`
	Version   string     `json:"version"`
	PageTitle string     `json:"pageTitle"`
	Entries   []TOCEntry `json:"entries"`
}

// FirstLinked returns the first topic entry with a non-empty link
func (t *TOC) FirstLinked() (TOCEntry, bool) {
	if t == nil {
		return TOCEntry{}, false
	}
	for _, e := range t.Entries {
		if !e.Section && e.Link != "" {
			return e, true
		}
	}
	return TOCEntry{}, false
}
