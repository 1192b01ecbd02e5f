package collection

import "strings"

// Filter selects tags by substring. Exclude patterns are checked first; an empty
// Include list admits every tag that is not excluded.
type Filter struct {
	Include []string `yaml:"include_patterns" json:"include_patterns"`
	Exclude []string `yaml:"exclude_patterns" json:"exclude_patterns"`
}

// Match reports whether tag passes the filter.
func (f Filter) Match(tag string) bool {
	for _, p := range f.Exclude {
		if strings.Contains(tag, p) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, p := range f.Include {
		if strings.Contains(tag, p) {
			return true
		}
	}
	return false
}
