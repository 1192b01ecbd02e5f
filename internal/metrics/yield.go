package metrics

import (
	"regexp"
	"strings"

	"github.com/agentic-research/tagtree/internal/hierarchy"
)

// MaxYieldLevel is the highest yield level; levels run 1..MaxYieldLevel.
const MaxYieldLevel = 5

var levelPrefix = regexp.MustCompile(`^([1-5])[-_]`)

// IsYieldTag reports whether the label marks a yield classification: it holds
// both "high" and "yield", or one of highyield/lowyield/loweryield (any case).
func IsYieldTag(tag string) bool {
	lower := strings.ToLower(tag)
	return (strings.Contains(lower, "high") && strings.Contains(lower, "yield")) ||
		strings.Contains(lower, "highyield") ||
		strings.Contains(lower, "lowyield") ||
		strings.Contains(lower, "loweryield")
}

// YieldLevel extracts the 1-5 level of a yield tag from a leading "N-" or "N_"
// on one of its segments, outermost first. It returns 0 when the tag is not a
// yield tag or no segment carries a level.
func YieldLevel(tag string) int {
	if !IsYieldTag(tag) {
		return 0
	}
	for _, seg := range hierarchy.Split(tag) {
		if m := levelPrefix.FindStringSubmatch(seg); m != nil {
			return int(m[1][0] - '0')
		}
	}
	return 0
}

// levelCache memoizes YieldLevel per distinct tag.
type levelCache map[string]int8

func (c levelCache) level(tag string) int8 {
	l, ok := c[tag]
	if !ok {
		l = int8(YieldLevel(tag))
		c[tag] = l
	}
	return l
}

// cardLevel returns the level of the first tag of a card that carries one,
// in the card's stored tag order. A card with no yield tag has level 0.
func (c levelCache) cardLevel(tags []string) int8 {
	for _, t := range tags {
		if l := c.level(t); l > 0 {
			return l
		}
	}
	return 0
}
