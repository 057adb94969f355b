package dedupe

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/search-template/internal/model"
)

// Group is the set of points sharing a market key, in input order.
type Group struct {
	Key    string
	Points []model.Point
}

// GroupByKey partitions points by GroupKey. Groups are returned in order of
// first appearance of their key and points keep their relative order.
func GroupByKey(points []model.Point) []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, p := range points {
		i, ok := idx[p.GroupKey]
		if !ok {
			i = len(groups)
			idx[p.GroupKey] = i
			groups = append(groups, Group{Key: p.GroupKey})
		}
		groups[i].Points = append(groups[i].Points, p)
	}
	return groups
}

// MarketKey extracts a market label from a composite string such as
// "Omni Major Market, Dallas, TX": the label is split on delim and the
// token at index (0-based) is returned trimmed.
//
// An empty delimiter returns the trimmed label unchanged. A label without
// enough tokens, or whose selected token is blank, is an error.
func MarketKey(label, delim string, index int) (string, error) {
	if delim == "" {
		return strings.TrimSpace(label), nil
	}
	if index < 0 {
		return "", eris.Errorf("token index %d is negative", index)
	}
	parts := strings.Split(label, delim)
	if index >= len(parts) {
		return "", eris.Errorf("label %q has %d token(s) split on %q, need index %d", label, len(parts), delim, index)
	}
	key := strings.TrimSpace(parts[index])
	if key == "" {
		return "", eris.Errorf("label %q has an empty token at index %d", label, index)
	}
	return key, nil
}
