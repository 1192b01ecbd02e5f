package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Edges(t *testing.T) {
	f := FromTags([]string{"A::B::1-HighYield", "A::B", "A::C", "Solo"})

	assert.Equal(t, []string{"A::B", "A::C"}, f.Children("A"))
	assert.Equal(t, []string{"A::B::1-HighYield"}, f.Children("A::B"))
	assert.Nil(t, f.Children("A::C"))
	assert.Nil(t, f.Children("Solo"), "single-segment path adds no edges")
	assert.Equal(t, []string{"A", "A::B"}, f.Parents())

	assert.Equal(t, 5, f.Len(), "implied ancestor A is counted")
}

func TestBuilder_Idempotent(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < 3; i++ {
		b.Add("X::Y::Z")
		b.Add("X::Y")
	}
	f := b.Build()

	assert.Equal(t, []string{"X::Y"}, f.Children("X"))
	assert.Equal(t, []string{"X::Y::Z"}, f.Children("X::Y"))
}

func TestForest_Ancestors(t *testing.T) {
	f := FromTags([]string{"A::B::C::D"})

	assert.Equal(t, []string{"A", "A::B", "A::B::C"}, f.Ancestors("A::B::C::D"))
	assert.Equal(t, []string{"A", "A::B"}, f.Ancestors("A::B::C"))
	assert.Empty(t, f.Ancestors("A"))
	require.NotNil(t, f.Ancestors("A"))

	// Paths outside the forest are split on demand.
	assert.Equal(t, []string{"P", "P::Q"}, f.Ancestors("P::Q::R"))
	assert.Empty(t, f.Ancestors("lonely"))
}

func TestForest_AncestorSlicesAreIsolated(t *testing.T) {
	f := FromTags([]string{"A::B::C"})
	a := f.Ancestors("A::B")
	_ = append(a, "mutated")
	assert.Equal(t, []string{"A", "A::B"}, f.Ancestors("A::B::C"))
}

func TestDepthAndSplit(t *testing.T) {
	assert.Equal(t, 0, Depth("root"))
	assert.Equal(t, 2, Depth("a::b::c"))
	assert.Equal(t, []string{"a", "b", "c"}, Split("a::b::c"))
	assert.Equal(t, []string{"a", ""}, Split("a::"))
}
