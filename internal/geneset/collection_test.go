package geneset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollection(t *testing.T) {
	c, err := NewCollection(
		[]string{"setA", "setB"},
		[][]string{{"g1", "g2"}, {"g2", "g3"}},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"setA", "setB"}, c.IDs())
	assert.Equal(t, []string{"g1", "g2", "g3"}, c.Genes())

	it, ok := c.Lookup("setB")
	require.True(t, ok)
	assert.Equal(t, []string{"g2", "g3"}, it.Parts)

	_, ok = c.Lookup("setC")
	assert.False(t, ok)
}

func TestNewCollection_ShapeMismatch(t *testing.T) {
	_, err := NewCollection([]string{"setA", "setB"}, [][]string{{"g1"}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFromItems_DuplicateID(t *testing.T) {
	_, err := FromItems([]Item{{ID: "setA"}, {ID: "setA"}})
	assert.ErrorIs(t, err, ErrDuplicateSet)
}

func TestFromItems_CopiesInput(t *testing.T) {
	parts := []string{"g1", "g2"}
	c, err := FromItems([]Item{{ID: "setA", Parts: parts}})
	require.NoError(t, err)

	parts[0] = "changed"
	assert.Equal(t, []string{"g1", "g2"}, c.Items()[0].Parts)
}
