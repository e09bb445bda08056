package smt

import (
	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/field"
	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/poseidon"
)

// EmptyHashes is the table of empty-subtree hashes for every height from 0
// (an empty leaf) up to the tree's height (an entirely empty tree's root).
// EMPTY[0] is the field's zero element; EMPTY[h+1] is H2(EMPTY[h], EMPTY[h]).
// Every absent node's value is read from this table instead of recomputed,
// which is what makes an all-empty tree of height H cheap to represent.
type EmptyHashes struct {
	values []field.Element
}

// NewEmptyHashes builds the empty-subtree table up to and including height.
func NewEmptyHashes(params *poseidon.Parameters, height uint32) EmptyHashes {
	values := make([]field.Element, height+1)
	values[0] = params.Modulus.Zero()
	for h := uint32(1); h <= height; h++ {
		values[h] = poseidon.H2(params, values[h-1], values[h-1])
	}
	return EmptyHashes{values: values}
}

// At returns the empty-subtree hash for the given height.
func (e EmptyHashes) At(height uint32) field.Element {
	return e.values[height]
}
