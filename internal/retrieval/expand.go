package retrieval

import (
	"regexp"
	"sort"
)

// queryExpansions maps common shorthand to canonical phrasing. Expanding
// before embedding improves recall on queries like "oop basics".
var queryExpansions = map[string]string{
	"oop": "object-oriented programming",
	"db":  "database",
	"ai":  "artificial intelligence",
	"ml":  "machine learning",
	"ds":  "data science",
	"fe":  "frontend",
	"be":  "backend",
}

type expansionPattern struct {
	re          *regexp.Regexp
	replacement string
}

// expansionPatterns is built once, in sorted key order so expansion is
// deterministic regardless of map iteration order.
var expansionPatterns = compileExpansions()

func compileExpansions() []expansionPattern {
	keys := make([]string, 0, len(queryExpansions))
	for abbrev := range queryExpansions {
		keys = append(keys, abbrev)
	}
	sort.Strings(keys)

	patterns := make([]expansionPattern, 0, len(keys))
	for _, abbrev := range keys {
		patterns = append(patterns, expansionPattern{
			// Whole words only: "db" must not rewrite "feedback".
			re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(abbrev) + `\b`),
			replacement: queryExpansions[abbrev],
		})
	}
	return patterns
}

// ExpandQuery replaces whole-word abbreviations in the query with their
// canonical expansions, case-insensitively and for every occurrence.
func ExpandQuery(query string) string {
	for _, p := range expansionPatterns {
		query = p.re.ReplaceAllString(query, p.replacement)
	}
	return query
}
