// Package hierarchy derives a forest of tag paths from "::"-segmented labels.
// Every proper segment-prefix of a path is one of its ancestors.
package hierarchy

import (
	"sort"
	"strings"
)

// Delimiter separates the segments of a tag path.
const Delimiter = "::"

// Split returns the segments of a tag path.
func Split(tag string) []string { return strings.Split(tag, Delimiter) }

// Depth returns the number of delimiters in a tag path; roots have depth 0.
func Depth(tag string) int { return strings.Count(tag, Delimiter) }

// Forest is the immutable result of a Builder: parent -> children adjacency and
// an ancestor list for every path seen.
type Forest struct {
	children  map[string]map[string]struct{}
	ancestors map[string][]string
}

// Builder accumulates tag paths. Adding a path more than once is a no-op.
type Builder struct {
	children  map[string]map[string]struct{}
	ancestors map[string][]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		children:  make(map[string]map[string]struct{}),
		ancestors: make(map[string][]string),
	}
}

// Add registers tag and every ancestor->child edge along its prefixes.
// The path is split once; each prefix's ancestor list is a sub-slice of the
// prefix list.
func (b *Builder) Add(tag string) {
	if _, seen := b.ancestors[tag]; seen {
		return
	}
	segments := Split(tag)
	prefixes := make([]string, len(segments))
	var sb strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sb.WriteString(Delimiter)
		}
		sb.WriteString(seg)
		prefixes[i] = sb.String()
	}

	for i, p := range prefixes {
		if _, ok := b.ancestors[p]; !ok {
			b.ancestors[p] = prefixes[:i:i]
		}
		if i == 0 {
			continue
		}
		parent := prefixes[i-1]
		set, ok := b.children[parent]
		if !ok {
			set = make(map[string]struct{})
			b.children[parent] = set
		}
		set[p] = struct{}{}
	}
}

// Build returns the forest. The Builder must not be used afterwards.
func (b *Builder) Build() *Forest {
	f := &Forest{children: b.children, ancestors: b.ancestors}
	b.children, b.ancestors = nil, nil
	return f
}

// FromTags builds a forest from a list of tag paths.
func FromTags(tags []string) *Forest {
	b := NewBuilder()
	for _, t := range tags {
		b.Add(t)
	}
	return b.Build()
}

// Children returns the direct child paths of tag, sorted.
func (f *Forest) Children(tag string) []string {
	set := f.children[tag]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Ancestors returns the proper ancestors of tag, shortest first.
// Paths never added to the forest are split on demand.
func (f *Forest) Ancestors(tag string) []string {
	if a, ok := f.ancestors[tag]; ok {
		return a
	}
	segments := Split(tag)
	out := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		out = append(out, strings.Join(segments[:i], Delimiter))
	}
	return out
}

// Parents returns every path that has at least one child, sorted.
func (f *Forest) Parents() []string {
	out := make([]string, 0, len(f.children))
	for p := range f.children {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct paths, including implied ancestors.
func (f *Forest) Len() int { return len(f.ancestors) }
