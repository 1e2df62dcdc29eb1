package wikitext

import (
	"fmt"
	"regexp"
	"strings"

	"ponydocs/domain/core/entities"
	"ponydocs/domain/core/valueobjects"
)

var (
	versionLinePattern = regexp.MustCompile(`\{\{#version:\s*([^|}]*)\|\s*([^}]*)\}\}`)
	manualLinePattern  = regexp.MustCompile(`\{\{#manual:\s*([^}]*)\}\}`)
	productLinePattern = regexp.MustCompile(`\{\{#product:\s*([^}]*)\}\}`)
)

// ParseVersionList reads {{#version:name|status}} lines, oldest first.
// Lines with an unknown status are skipped.
func ParseVersionList(product, content string) []valueobjects.VersionRecord {
	var records []valueobjects.VersionRecord
	for _, m := range versionLinePattern.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		status, err := valueobjects.ParseVersionStatus(m[2])
		if name == "" || err != nil {
			continue
		}
		records = append(records, valueobjects.VersionRecord{
			Product:     product,
			ShortName:   name,
			Status:      status,
			OrdinalRank: len(records),
		})
	}
	return records
}

// FormatVersionList renders records as a version list page
func FormatVersionList(records []valueobjects.VersionRecord) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "{{#version:%s|%s}}\n", r.ShortName, r.Status)
	}
	return b.String()
}

// ParseManualList reads
// {{#manual:short|Long Name|cat1,cat2|description|static=1.0;2.0}} lines.
// Only the short name is required.
func ParseManualList(product, content string) []entities.Manual {
	var manuals []entities.Manual
	for _, m := range manualLinePattern.FindAllStringSubmatch(content, -1) {
		fields := splitFields(m[1])
		if fields[0] == "" {
			continue
		}
		manual := entities.Manual{
			Product:   product,
			ShortName: fields[0],
			LongName:  fields[0],
		}
		for i, f := range fields[1:] {
			switch {
			case strings.HasPrefix(f, "static="):
				manual.Static = true
				manual.StaticVersions = splitList(strings.TrimPrefix(f, "static="), ";")
			case i == 0 && f != "":
				manual.LongName = f
			case i == 1:
				manual.Categories = splitList(f, ",")
			case i == 2:
				manual.Description = f
			}
		}
		manuals = append(manuals, manual)
	}
	return manuals
}

// ParseProductList reads {{#product:short|Long Name|description}} lines
func ParseProductList(content string) []entities.Product {
	var products []entities.Product
	for _, m := range productLinePattern.FindAllStringSubmatch(content, -1) {
		fields := splitFields(m[1])
		if fields[0] == "" {
			continue
		}
		p := entities.Product{ShortName: fields[0], LongName: fields[0]}
		if len(fields) > 1 && fields[1] != "" {
			p.LongName = fields[1]
		}
		if len(fields) > 2 {
			p.Description = fields[2]
		}
		products = append(products, p)
	}
	return products
}

func splitFields(s string) []string {
	fields := strings.Split(s, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
