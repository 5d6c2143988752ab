package catalog

import (
	"strings"
	"unicode"
)

// shortIdentifierLen is the length at or below which an identifier (a state
// abbreviation) must appear as the leading word of a comma-separated segment
// instead of as a plain substring. "Bend, OR 97701" matches "or"; "Seattle or
// Tacoma" does not.
const shortIdentifierLen = 2

// ResolveRegion maps a free-form location to a region code, checking regions in
// priority order. First match wins. Returns "" when nothing matches.
func (c *Catalog) ResolveRegion(location string) string {
	loc := normalizeLocation(location)
	if loc == "" {
		return ""
	}
	leads := segmentLeads(loc)

	for _, r := range c.def.Regions {
		for _, id := range r.Identifiers {
			if id == "" {
				continue
			}
			if len(id) <= shortIdentifierLen {
				if leads[id] {
					return r.Code
				}
				continue
			}
			if strings.Contains(loc, id) {
				return r.Code
			}
		}
	}
	return ""
}

// ResolveCounty maps a location within a region to a county code: county names
// are tried first, then the city alias table. Returns "" when nothing matches.
func (c *Catalog) ResolveCounty(code, location string) string {
	r := c.region(code)
	if r == nil || len(r.Counties) == 0 {
		return ""
	}
	loc := normalizeLocation(location)
	if loc == "" {
		return ""
	}

	for _, cty := range r.Counties {
		for _, name := range cty.Names {
			if name != "" && strings.Contains(loc, name) {
				return cty.Code
			}
		}
	}
	for _, cty := range r.Counties {
		for _, city := range cty.Cities {
			if city != "" && strings.Contains(loc, city) {
				return cty.Code
			}
		}
	}
	return ""
}

func normalizeLocation(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(location)), " ")
}

// segmentLeads returns the first word of every comma-separated segment.
func segmentLeads(loc string) map[string]bool {
	leads := make(map[string]bool)
	for _, seg := range strings.Split(loc, ",") {
		words := strings.FieldsFunc(seg, func(r rune) bool {
			return !unicode.IsLetter(r) && r != '\''
		})
		if len(words) > 0 {
			leads[words[0]] = true
		}
	}
	return leads
}
