// Package filter applies declarative exclusion rules to facility points
// before deduplication.
package filter

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules is the exclusion configuration for one deployment.
type Rules struct {
	// ExcludeRegions lists region codes outside the subscription area.
	ExcludeRegions []string `yaml:"exclude_regions"`
	// BorderRegions lists in-area regions adjacent to an excluded region.
	BorderRegions []string `yaml:"border_regions"`
	// BorderDistanceMiles drops border-region points within this distance
	// (inclusive) of any point removed by ExcludeRegions.
	BorderDistanceMiles float64 `yaml:"border_distance_miles"`
	// BlockedNames are facility names the analysis tool refuses to process.
	BlockedNames []string `yaml:"blocked_names"`
	// FlaggedHTML holds error messages pasted from the analysis tool; site
	// names found in them are added to the name blocklist.
	FlaggedHTML []string `yaml:"flagged_html"`
}

// LoadRules reads exclusion rules from a YAML file. An empty path returns
// empty rules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return Rules{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "filter: read rules %s", path)
	}

	// The document may be bare or nested under a top-level "exclusions" key.
	var wrapper struct {
		Exclusions *Rules `yaml:"exclusions"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Rules{}, eris.Wrapf(err, "filter: parse rules %s", path)
	}

	var rules Rules
	if wrapper.Exclusions != nil {
		rules = *wrapper.Exclusions
	} else if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, eris.Wrapf(err, "filter: parse rules %s", path)
	}

	if rules.BorderDistanceMiles < 0 {
		return Rules{}, eris.Errorf("filter: border_distance_miles must be >= 0, got %v", rules.BorderDistanceMiles)
	}
	return rules, nil
}

// NameBlocklist returns the trimmed blocked names plus any names extracted
// from FlaggedHTML, without duplicates, in first-seen order.
func (r Rules) NameBlocklist() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, n := range r.BlockedNames {
		add(n)
	}
	for _, html := range r.FlaggedHTML {
		for _, n := range ExtractFlaggedNames(html) {
			add(n)
		}
	}
	return names
}

// Empty reports whether no rule would remove anything.
func (r Rules) Empty() bool {
	return len(r.ExcludeRegions) == 0 && len(r.BlockedNames) == 0 && len(r.FlaggedHTML) == 0
}

func stringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}
