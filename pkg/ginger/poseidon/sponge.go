package poseidon

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/field"
)

// Hash absorbs input in blocks of Rate elements and returns state[0] after
// the final permutation, per spec §4.D. The empty-input hash is not a
// special case: absorbing zero blocks still applies the permutation once
// to the all-zero state, binding Hash(nil) to a fixed domain constant
// rather than returning a bare zero.
func Hash(p *Parameters, input []field.Element) field.Element {
	s := NewSponge(p)
	s.Update(input...)
	return s.Finalize()
}

// H2 hashes exactly two elements — the sole sponge call the SMT engine
// needs to combine a node's two children.
func H2(p *Parameters, left, right field.Element) field.Element {
	return Hash(p, []field.Element{left, right})
}

// Sponge is the streaming form of the Poseidon hash: construct with
// NewSponge, feed input with any number of Update calls, then call
// Finalize exactly once. A Sponge is single-use; Finalize consumes it.
type Sponge struct {
	params  *Parameters
	state   [Width]field.Element
	pending []field.Element
	done    bool
}

// NewSponge creates a streaming sponge over params; see HashBatch for the
// pool-backed form spec §4.D's "batch form" describes.
func NewSponge(params *Parameters) *Sponge {
	s := &Sponge{params: params}
	for i := range s.state {
		s.state[i] = params.Modulus.Zero()
	}
	s.state = Permutation(params, s.state)
	return s
}

// Update absorbs additional field elements. It may be called any number
// of times before Finalize.
func (s *Sponge) Update(elements ...field.Element) {
	if s.done {
		panic("poseidon: Update called on a finalized Sponge")
	}
	s.pending = append(s.pending, elements...)
	for len(s.pending) >= Rate {
		block := s.pending[:Rate]
		s.absorbBlock(block)
		s.pending = s.pending[Rate:]
	}
}

// Finalize absorbs any remaining buffered element (spec §4.D's single
// leftover case, since Rate=2) and returns the squeeze output. The Sponge
// must not be used afterward.
func (s *Sponge) Finalize() field.Element {
	if s.done {
		panic("poseidon: Finalize called twice on the same Sponge")
	}
	s.done = true

	if len(s.pending) > 0 {
		s.state[0] = s.state[0].Add(s.pending[0])
		s.state[Rate] = s.state[Rate].Add(s.params.C2)
		s.state = Permutation(s.params, s.state)
	}

	return s.state[0]
}

func (s *Sponge) absorbBlock(block []field.Element) {
	s.state[0] = s.state[0].Add(block[0])
	s.state[1] = s.state[1].Add(block[1])
	s.state[Rate] = s.state[Rate].Add(s.params.C2)
	s.state = Permutation(s.params, s.state)
}

// HashBatch hashes many independent input sequences concurrently over a
// bounded worker pool, preserving the order of inputs to outputs (spec
// §4.D's "batch form"). cpuLoad bounds how many hashes run at once; values
// less than 1 are treated as 1 (no parallelism).
func HashBatch(p *Parameters, inputs [][]field.Element, cpuLoad int) []field.Element {
	if cpuLoad < 1 {
		cpuLoad = 1
	}

	results := make([]field.Element, len(inputs))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(cpuLoad)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			results[i] = Hash(p, in)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
