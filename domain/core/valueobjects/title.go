package valueobjects

import (
	"regexp"
	"strings"
)

// TitleKind classifies a storage title
type TitleKind int

const (
	TitleOther TitleKind = iota
	TitleTopic
	TitleTOC
	TitleVersionList
	TitleManualList
	TitleProductList
)

func (k TitleKind) String() string {
	switch k {
	case TitleTopic:
		return "topic"
	case TitleTOC:
		return "toc"
	case TitleVersionList:
		return "versionList"
	case TitleManualList:
		return "manualList"
	case TitleProductList:
		return "productList"
	default:
		return "other"
	}
}

// TitleInfo is the structural reading of a storage title
type TitleInfo struct {
	Kind       TitleKind
	Title      string
	Product    string
	Manual     string
	Topic      string
	Version    string
	TOCVersion string
}

var tocSegment = regexp.MustCompile(`^([A-Za-z0-9_]+)TOC([A-Za-z0-9_.\-]*)$`)

// ClassifyTitle is the single place where title shape implies intent
func (c *Codec) ClassifyTitle(title string) TitleInfo {
	title = strings.TrimSpace(title)
	info := TitleInfo{Kind: TitleOther, Title: title}

	segments := strings.Split(title, titleDelimiter)
	if len(segments) < 2 || !c.IsNamespace(segments[0]) {
		return info
	}

	switch len(segments) {
	case 2:
		if segments[1] == c.cfg.ProductsPage {
			info.Kind = TitleProductList
		}
	case 3:
		info.Product = segments[1]
		switch segments[2] {
		case c.cfg.VersionsPage:
			info.Kind = TitleVersionList
		case c.cfg.ManualsPage:
			info.Kind = TitleManualList
		default:
			if m := c.tocPattern().FindStringSubmatch(segments[2]); m != nil {
				info.Kind = TitleTOC
				info.Manual = m[1]
				info.TOCVersion = m[2]
			}
		}
	case 4, 5:
		info.Kind = TitleTopic
		info.Product = segments[1]
		info.Manual = segments[2]
		info.Topic = segments[3]
		if len(segments) == 5 {
			info.Version = segments[4]
		}
	}
	return info
}

func (c *Codec) tocPattern() *regexp.Regexp {
	if c.cfg.TOCMarker == "" || c.cfg.TOCMarker == "TOC" {
		return tocSegment
	}
	return regexp.MustCompile(`^([A-Za-z0-9_]+)` + regexp.QuoteMeta(c.cfg.TOCMarker) + `([A-Za-z0-9_.\-]*)$`)
}

// TopicTitle builds ns:product:manual:topic:version
func (c *Codec) TopicTitle(product, manual, topic, version string) string {
	return c.ToStorageTitle(NewCanonicalIdentifier(c.namespace, product, manual, topic, version))
}

// TOCTitle builds ns:product:{manual}TOC{version}
func (c *Codec) TOCTitle(product, manual, version string) string {
	return strings.Join([]string{c.namespace, product, manual + c.cfg.TOCMarker + version}, titleDelimiter)
}

// VersionsTitle builds ns:product:Versions
func (c *Codec) VersionsTitle(product string) string {
	return strings.Join([]string{c.namespace, product, c.cfg.VersionsPage}, titleDelimiter)
}

// ManualsTitle builds ns:product:Manuals
func (c *Codec) ManualsTitle(product string) string {
	return strings.Join([]string{c.namespace, product, c.cfg.ManualsPage}, titleDelimiter)
}

// ProductsTitle builds ns:Products
func (c *Codec) ProductsTitle() string {
	return c.namespace + titleDelimiter + c.cfg.ProductsPage
}

// ManualURL builds the landing path of a manual: ns/product/version/manual
func (c *Codec) ManualURL(product, version, manual string) string {
	return strings.Join([]string{c.namespace, product, version, manual}, urlDelimiter)
}

// TOCSortKeyPrefix is the tag index prefix of every TOC page of a manual
func (c *Codec) TOCSortKeyPrefix(product, manual string) string {
	return strings.ToUpper(product + titleDelimiter + manual + c.cfg.TOCMarker)
}

// SortKey is the tag index key of a title: the title without its namespace, upper-cased
func (c *Codec) SortKey(title string) string {
	title = strings.TrimSpace(title)
	if idx := strings.Index(title, titleDelimiter); idx >= 0 && c.IsNamespace(title[:idx]) {
		title = title[idx+1:]
	}
	return strings.ToUpper(title)
}

// TopicSortKeyPrefix is the tag index prefix shared by every copy of a topic
func TopicSortKeyPrefix(product, manual, topic string) string {
	return strings.ToUpper(strings.Join([]string{product, manual, topic}, titleDelimiter) + titleDelimiter)
}
