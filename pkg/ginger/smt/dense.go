package smt

import (
	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/field"
	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/poseidon"
)

// DenseRoot computes the root of a fully-populated binary tree of the given
// height directly from a leaf map (filling every index absent from the
// map with the field's zero value), bottom-up, with no sparsity
// shortcuts at all. It exists purely as a naive cross-check for tests: the
// sparse Tree must always agree with this brute-force computation for the
// same leaf contents, adapted from the teacher's sequentiallyFillTree
// bottom-up pairwise fill.
func DenseRoot(params *poseidon.Parameters, height uint32, leaves map[uint64]field.Element) field.Element {
	width := uint64(1) << height
	level := make([]field.Element, width)
	zero := params.Modulus.Zero()
	for i := uint64(0); i < width; i++ {
		if v, ok := leaves[i]; ok {
			level[i] = v
		} else {
			level[i] = zero
		}
	}

	for len(level) > 1 {
		next := make([]field.Element, len(level)/2)
		for i := 0; i < len(next); i++ {
			next[i] = poseidon.H2(params, level[2*i], level[2*i+1])
		}
		level = next
	}

	if len(level) == 0 {
		return zero
	}
	return level[0]
}
