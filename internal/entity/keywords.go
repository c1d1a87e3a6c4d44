package entity

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// stop words stripped before keyword matching: generic corporate suffixes and
// filler that would make every company look like every other company.
var stopWords = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "corporation": true,
	"company": true, "gmbh": true, "plc": true, "group": true, "holdings": true,
	"the": true, "and": true, "for": true, "of": true, "at": true, "an": true,
	"technologies": true, "technology": true, "solutions": true, "recruiting": true,
	"staffing": true, "labs": true,
}

// Slugify normalizes a label into the lookup key used for exact matching.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Keywords extracts the tokens used for the fuzzy lookup pass: lowercase,
// stop words removed, tokens shorter than 3 characters dropped.
func Keywords(s string) []string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	var out []string
	for _, tok := range strings.Fields(s) {
		if len(tok) < 3 || stopWords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// overlap counts shared tokens between two keyword sets.
func overlap(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	n := 0
	for _, t := range b {
		if set[t] {
			n++
			set[t] = false
		}
	}
	return n
}
