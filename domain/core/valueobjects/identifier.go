package valueobjects

import (
	"strings"

	"ponydocs/domain/config"
	pkgerrors "ponydocs/pkg/errors"
)

const (
	titleDelimiter = ":"
	urlDelimiter   = "/"
)

// CanonicalIdentifier addresses one documentation page.
// Identifiers outside the documentation namespace carry only their raw title.
type CanonicalIdentifier struct {
	namespace string
	product   string
	manual    string
	topic     string
	version   string
	raw       string
}

// NewCanonicalIdentifier creates a documentation identifier
func NewCanonicalIdentifier(namespace, product, manual, topic, version string) CanonicalIdentifier {
	return CanonicalIdentifier{
		namespace: namespace,
		product:   product,
		manual:    manual,
		topic:     topic,
		version:   version,
	}
}

// NewPassthroughIdentifier wraps a title outside the documentation namespace
func NewPassthroughIdentifier(title string) CanonicalIdentifier {
	return CanonicalIdentifier{raw: title}
}

func (id CanonicalIdentifier) Namespace() string { return id.namespace }
func (id CanonicalIdentifier) Product() string   { return id.product }
func (id CanonicalIdentifier) Manual() string    { return id.manual }
func (id CanonicalIdentifier) Topic() string     { return id.topic }
func (id CanonicalIdentifier) Version() string   { return id.version }

// IsDocumentation reports whether the identifier is managed by the engine
func (id CanonicalIdentifier) IsDocumentation() bool {
	return id.raw == "" && id.namespace != ""
}

// IsPartial reports whether the version still awaits resolution
func (id CanonicalIdentifier) IsPartial() bool {
	return id.IsDocumentation() && id.version == ""
}

// WithVersion returns a copy pinned to version
func (id CanonicalIdentifier) WithVersion(version string) CanonicalIdentifier {
	id.version = version
	return id
}

// SortKeyPrefix is the tag index prefix shared by every copy of the topic
func (id CanonicalIdentifier) SortKeyPrefix() string {
	return TopicSortKeyPrefix(id.product, id.manual, id.topic)
}

// Equals checks if two identifiers are equal
func (id CanonicalIdentifier) Equals(other CanonicalIdentifier) bool {
	return id == other
}

// RawPieces is a link token split on the title delimiter
type RawPieces struct {
	Token         string
	Segments      []string
	Documentation bool
}

// Count returns the number of segments
func (p RawPieces) Count() int {
	return len(p.Segments)
}

// Codec translates between link tokens, identifiers, storage titles and
// pretty URLs. Segment meaning is decided by arity alone.
type Codec struct {
	namespace string
	latest    string
	cfg       config.DomainConfig
}

// NewCodec creates a codec for the configured namespace
func NewCodec(cfg *config.DomainConfig) *Codec {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Codec{
		namespace: cfg.Namespace,
		latest:    cfg.LatestToken,
		cfg:       *cfg,
	}
}

// Namespace returns the documentation namespace
func (c *Codec) Namespace() string {
	return c.namespace
}

// IsLatest reports whether token is the symbolic latest version
func (c *Codec) IsLatest(token string) bool {
	return strings.EqualFold(token, c.latest)
}

// LatestToken returns the symbolic latest version
func (c *Codec) LatestToken() string {
	return c.latest
}

// IsNamespace reports whether segment names the documentation namespace
func (c *Codec) IsNamespace(segment string) bool {
	return strings.EqualFold(strings.TrimSpace(segment), c.namespace)
}

// ParsePartialLink splits a link token. A bare word inside the
// documentation namespace is prefixed with the namespace.
func (c *Codec) ParsePartialLink(text, ambientNamespace string) RawPieces {
	token := strings.TrimSpace(text)
	if !strings.Contains(token, titleDelimiter) && c.IsNamespace(ambientNamespace) {
		token = c.namespace + titleDelimiter + token
	}

	segments := strings.Split(token, titleDelimiter)
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	return RawPieces{
		Token:         token,
		Segments:      segments,
		Documentation: len(segments) > 1 && c.IsNamespace(segments[0]),
	}
}

// ToCanonical applies the arity rules using the ambient context
func (c *Codec) ToCanonical(p RawPieces, dc DocContext) (CanonicalIdentifier, error) {
	if !p.Documentation {
		return NewPassthroughIdentifier(p.Token), nil
	}

	for _, s := range p.Segments[1:] {
		if s == "" {
			return CanonicalIdentifier{}, pkgerrors.NewInvalidSegmentCountError(p.Token, p.Count())
		}
	}

	s := p.Segments
	switch len(s) {
	case 2:
		// ns:topic
		if dc.Product() == "" || dc.Manual() == "" {
			return CanonicalIdentifier{}, pkgerrors.NewAmbiguousLinkError(p.Token, "manual")
		}
		version := dc.CurrentVersion()
		if version == "" {
			return CanonicalIdentifier{}, pkgerrors.NewAmbiguousLinkError(p.Token, "version")
		}
		return NewCanonicalIdentifier(c.namespace, dc.Product(), dc.Manual(), s[1], version), nil

	case 3:
		// ns:manual:topic
		if dc.Product() == "" {
			return CanonicalIdentifier{}, pkgerrors.NewAmbiguousLinkError(p.Token, "product")
		}
		version := dc.CurrentVersion()
		if version == "" {
			return CanonicalIdentifier{}, pkgerrors.NewAmbiguousLinkError(p.Token, "version")
		}
		return NewCanonicalIdentifier(c.namespace, dc.Product(), s[1], s[2], version), nil

	case 4:
		// ns:product:manual:topic
		version := c.latest
		if s[1] == dc.Product() {
			version = dc.SelectedVersion(s[1])
			if version == "" {
				return CanonicalIdentifier{}, pkgerrors.NewAmbiguousLinkError(p.Token, "version")
			}
		}
		return NewCanonicalIdentifier(c.namespace, s[1], s[2], s[3], version), nil

	case 5:
		// ns:product:manual:topic:version
		return NewCanonicalIdentifier(c.namespace, s[1], s[2], s[3], s[4]), nil
	}

	return CanonicalIdentifier{}, pkgerrors.NewInvalidSegmentCountError(p.Token, p.Count())
}

// Translate parses and canonicalises a link token in one step
func (c *Codec) Translate(token string, dc DocContext) (CanonicalIdentifier, error) {
	return c.ToCanonical(c.ParsePartialLink(token, c.namespace), dc)
}

// ToPrettyURL emits namespace/product/version/manual/topic
func (c *Codec) ToPrettyURL(id CanonicalIdentifier) string {
	if !id.IsDocumentation() {
		return id.raw
	}
	return strings.Join([]string{id.namespace, id.product, id.version, id.manual, id.topic}, urlDelimiter)
}

// ToStorageTitle emits namespace:product:manual:topic:version
func (c *Codec) ToStorageTitle(id CanonicalIdentifier) string {
	if !id.IsDocumentation() {
		return id.raw
	}
	parts := []string{id.namespace, id.product, id.manual, id.topic}
	if id.version != "" {
		parts = append(parts, id.version)
	}
	return strings.Join(parts, titleDelimiter)
}

// ParseStorageTitle reads a full five segment storage title
func (c *Codec) ParseStorageTitle(title string) (CanonicalIdentifier, error) {
	segments := strings.Split(strings.TrimSpace(title), titleDelimiter)
	if len(segments) != 5 || !c.IsNamespace(segments[0]) {
		return CanonicalIdentifier{}, pkgerrors.NewInvalidSegmentCountError(title, len(segments))
	}
	return NewCanonicalIdentifier(c.namespace, segments[1], segments[2], segments[3], segments[4]), nil
}

// ParsePrettyURL reads product/version/manual/topic with an optional
// leading namespace segment
func (c *Codec) ParsePrettyURL(path string) (CanonicalIdentifier, error) {
	segments := SplitPath(path)
	if len(segments) > 0 && c.IsNamespace(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) != 4 {
		return CanonicalIdentifier{}, pkgerrors.NewInvalidSegmentCountError(path, len(segments))
	}
	return NewCanonicalIdentifier(c.namespace, segments[0], segments[2], segments[3], segments[1]), nil
}

// SplitPath splits a URL path into non-empty segments
func SplitPath(path string) []string {
	raw := strings.Split(strings.Trim(strings.TrimSpace(path), urlDelimiter), urlDelimiter)
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
