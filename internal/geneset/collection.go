// Package geneset provides gene set collections and dense membership matrices.
package geneset

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when index-aligned inputs differ in length.
var ErrShapeMismatch = errors.New("shape mismatch")

// ErrDuplicateSet is returned when a gene set identifier appears twice in one collection.
var ErrDuplicateSet = errors.New("duplicate gene set")

// Item is one gene set and its member genes.
type Item struct {
	ID    string
	URL   string
	Parts []string
}

// Collection is an immutable, ordered set of gene sets.
// A single Collection is shared read-only by every job of a batch.
type Collection struct {
	items []Item
	index map[string]int
}

// NewCollection builds a collection from parallel vectors of set identifiers
// and member lists, as supplied by a host caller.
func NewCollection(sets []string, parts [][]string) (*Collection, error) {
	if len(sets) != len(parts) {
		return nil, fmt.Errorf("gene set collection: %d sets but %d member lists: %w",
			len(sets), len(parts), ErrShapeMismatch)
	}
	items := make([]Item, len(sets))
	for i, id := range sets {
		items[i] = Item{ID: id, Parts: parts[i]}
	}
	return FromItems(items)
}

// FromItems builds a collection from items. Items and their member slices
// are copied, so later changes by the caller are not observed.
func FromItems(items []Item) (*Collection, error) {
	c := &Collection{
		items: make([]Item, len(items)),
		index: make(map[string]int, len(items)),
	}
	for i, it := range items {
		if _, ok := c.index[it.ID]; ok {
			return nil, fmt.Errorf("gene set %q: %w", it.ID, ErrDuplicateSet)
		}
		c.index[it.ID] = i
		c.items[i] = Item{
			ID:    it.ID,
			URL:   it.URL,
			Parts: append([]string(nil), it.Parts...),
		}
	}
	return c, nil
}

// Len returns the number of gene sets.
func (c *Collection) Len() int {
	return len(c.items)
}

// Items returns the gene sets in collection order.
// The returned slice is shared and must not be modified.
func (c *Collection) Items() []Item {
	return c.items
}

// Lookup returns the gene set with the given identifier.
func (c *Collection) Lookup(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// IDs returns the gene set identifiers in collection order.
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.ID
	}
	return ids
}

// Genes returns the distinct member genes in first-seen order.
func (c *Collection) Genes() []string {
	seen := make(map[string]bool)
	var genes []string
	for _, it := range c.items {
		for _, g := range it.Parts {
			if !seen[g] {
				seen[g] = true
				genes = append(genes, g)
			}
		}
	}
	return genes
}
