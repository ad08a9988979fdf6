package catalog

import "strings"

// Filter returns the groups whose rates match the query by case-insensitive
// substring on the description. Groups left with no matching rates are
// omitted entirely. An empty or whitespace query returns the full catalog.
func Filter(groups []RateGroup, query string) []RateGroup {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return groups
	}

	filtered := make([]RateGroup, 0, len(groups))
	for _, group := range groups {
		var matched []Rate
		for _, rate := range group.Rates {
			if strings.Contains(strings.ToLower(rate.Description), needle) {
				matched = append(matched, rate)
			}
		}
		if len(matched) == 0 {
			continue
		}
		filtered = append(filtered, RateGroup{Title: group.Title, Rates: matched})
	}
	return filtered
}
