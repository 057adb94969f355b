package filter

import (
	"regexp"
	"strings"
)

// Patterns for the analysis tool's rejection messages, e.g.
// "Site Mercy Harvard Care Center with buffer 5 miles is outside of eligible market areas."
// and "Site Foo Gardens was not found in an eligible market."
var flaggedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Site\s+([A-Za-z\s]+)with`),
	regexp.MustCompile(`Site\s+([A-Za-z\s]+)was`),
}

// ExtractFlaggedNames returns the trimmed site names found in an analysis
// tool error message. All "with" matches come before all "was" matches.
func ExtractFlaggedNames(html string) []string {
	var names []string
	for _, re := range flaggedPatterns {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			if name := strings.TrimSpace(m[1]); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
