package sslident

import "strings"

// altNameTag marks subjectAltName entries that carry a hostname identity.
// The tag is case sensitive; entries with any other tag, or none, are not
// hostnames under this scheme.
const altNameTag = "DNS:"

// parseAltNames splits a raw subjectAltName string into its DNS-tagged
// values, preserving entry order and duplicates. Whitespace around entries
// and after the tag's colon is discarded. An entry whose value is empty
// after trimming stays in the list; it can only ever match an empty host.
func parseAltNames(raw string) []string {
	if raw == "" {
		return nil
	}

	entries := strings.Split(raw, ",")
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		value, ok := strings.CutPrefix(strings.TrimSpace(entry), altNameTag)
		if !ok {
			continue
		}
		names = append(names, strings.TrimSpace(value))
	}

	return names
}
