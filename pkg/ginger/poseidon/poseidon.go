// Package poseidon implements the Poseidon permutation and sponge used to
// hash field elements in the MNT4-753 / MNT6-753 scalar fields.
//
// This is the "x^(-1)" Poseidon variant: the S-box is field inversion
// (0 maps to 0) rather than a small odd power, state width is fixed at 3
// (rate 2, capacity 1), and the permutation's last round is S-box only —
// there is no trailing MDS mix or round-constant addition. All three
// choices are load-bearing (see Permutation's doc comment) and are not
// negotiable per-instance options.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/field"
)

// Width, Rate and Capacity are fixed by the curve cycle's Poseidon
// instantiation; spec §3 pins T=3, R=2, C=1.
const (
	Width    = 3
	Rate     = 2
	Capacity = 1
)

// Parameters bundles everything the permutation needs for one curve's
// scalar field: round counts, the MDS matrix, the round-constant sequence,
// and the capacity-lane domain-separation constant added on every
// absorption block.
type Parameters struct {
	Modulus *field.Modulus

	// RF is the number of full rounds run at the head AND at the tail
	// (so 2*RF full rounds total, minus the asymmetric final round — see
	// Permutation).
	RF int
	// RP is the number of partial (single-lane S-box) rounds in the
	// middle of the permutation.
	RP int

	// RoundConstants has length Width*(2*RF+RP), consumed Width at a time
	// by each ARC step (the initial ARC plus one ARC per full/partial
	// round).
	RoundConstants []field.Element
	// MDS is the Width x Width maximum-distance-separable mixing matrix,
	// row-major: MDS[i*Width+j].
	MDS []field.Element
	// C2 is added to the capacity lane (state[Rate]) on every absorption
	// block, full or partial, to separate this hash's domain from other
	// uses of the same permutation.
	C2 field.Element
}

// MNT4753 and MNT6753 are the Poseidon parameter bundles for the two
// curves in the cycle. Round counts follow the conservative, widely used
// 753-bit/128-bit-security choice of 8 full rounds (4 head, 4 tail) and 57
// partial rounds; both curves share the same round structure and differ
// only in which field their constants are drawn from.
var (
	MNT4753 = NewParameters(field.MNT4753Fr, 4, 57)
	MNT6753 = NewParameters(field.MNT6753Fr, 4, 57)
)

// NewParameters derives a full Parameters bundle for m: it generates the
// round-constant sequence and MDS matrix deterministically from the
// modulus and round counts, the way Grain-LFSR-based Poseidon
// instantiations avoid shipping a large precomputed constant table.
func NewParameters(m *field.Modulus, rf, rp int) *Parameters {
	lfsr := newGrainLFSR(m, rf, rp)

	totalBlocks := 2*rf + rp
	roundConstants := make([]field.Element, Width*totalBlocks)
	for i := range roundConstants {
		roundConstants[i] = lfsr.nextElement(m)
	}

	mds := cauchyMDS(m, Width)

	return &Parameters{
		Modulus:        m,
		RF:             rf,
		RP:             rp,
		RoundConstants: roundConstants,
		MDS:            mds,
		C2:             m.New(2),
	}
}

// sbox is the Poseidon S-box for this variant: field inversion, with 0
// mapped explicitly to 0. Treating this as x^5 or x^3 (the other common
// Poseidon S-box choices) silently produces a different, incompatible
// permutation with no error or panic to flag the mistake.
func sbox(x field.Element) field.Element {
	if x.IsZero() {
		return x
	}
	return x.Inverse()
}

// applyMDS returns MDS * state.
func applyMDS(p *Parameters, state [Width]field.Element) [Width]field.Element {
	var out [Width]field.Element
	for i := 0; i < Width; i++ {
		acc := p.Modulus.Zero()
		for j := 0; j < Width; j++ {
			acc = acc.Add(state[j].Mul(p.MDS[i*Width+j]))
		}
		out[i] = acc
	}
	return out
}

// addRoundConstants adds the next Width constants (starting at *idx) to
// every lane, advancing *idx by Width.
func addRoundConstants(p *Parameters, state [Width]field.Element, idx *int) [Width]field.Element {
	for i := 0; i < Width; i++ {
		state[i] = state[i].Add(p.RoundConstants[*idx])
		*idx++
	}
	return state
}

// Permutation applies the full Poseidon permutation to state, following
// the structure pinned by spec §4.C and confirmed against the original
// R1CS gadget: an initial round-constant addition, RF full rounds, RP
// partial rounds, RF-1 more full rounds, and a final round that applies
// the S-box to every lane but skips both the MDS mix and the round-
// constant addition. Skipping that last mix is deliberate, not an
// oversight: the sponge's squeeze step reads state[0] directly afterward,
// and folding the asymmetry in here keeps every caller correct by
// construction instead of relying on each one to remember to stop early.
func Permutation(p *Parameters, state [Width]field.Element) [Width]field.Element {
	idx := 0

	state = addRoundConstants(p, state, &idx)

	for r := 0; r < p.RF; r++ {
		for i := range state {
			state[i] = sbox(state[i])
		}
		state = applyMDS(p, state)
		state = addRoundConstants(p, state, &idx)
	}

	for r := 0; r < p.RP; r++ {
		state[0] = sbox(state[0])
		state = applyMDS(p, state)
		state = addRoundConstants(p, state, &idx)
	}

	for r := 0; r < p.RF-1; r++ {
		for i := range state {
			state[i] = sbox(state[i])
		}
		state = applyMDS(p, state)
		state = addRoundConstants(p, state, &idx)
	}

	for i := range state {
		state[i] = sbox(state[i])
	}

	return state
}

// cauchyMDS builds a Cauchy matrix, which is always maximum-distance
// separable: M[i][j] = 1/(x_i + y_j) for distinct x_i, y_j. This is the
// same construction the teacher's Poseidon implementation uses for its
// own (differently sized) MDS matrix.
func cauchyMDS(m *field.Modulus, width int) []field.Element {
	matrix := make([]field.Element, width*width)
	for i := 0; i < width; i++ {
		for j := 0; j < width; j++ {
			x := m.New(uint64(i + 1))
			y := m.New(uint64(j + width + 1))
			sum := x.Add(y)
			matrix[i*width+j] = sum.Inverse()
		}
	}
	return matrix
}

// grainLFSR is a Grain-style linear-feedback shift register used to
// derive Poseidon round constants deterministically from a curve's
// modulus and round counts, so this package does not need to ship a large
// precomputed constant file per curve. Adapted from the teacher's
// GrainLFSR (hash/poseidon.go), widened to a longer register and reseeded
// per modulus so MNT4753 and MNT6753 never share a constant stream.
type grainLFSR struct {
	state [96]bool
}

func newGrainLFSR(m *field.Modulus, rf, rp int) *grainLFSR {
	g := &grainLFSR{}
	g.initialize(m, rf, rp)
	return g
}

func (g *grainLFSR) initialize(m *field.Modulus, rf, rp int) {
	// Seed bits encode the instance parameters (field name, width, round
	// counts) so different curves or round structures never collide on
	// the same constant stream, mirroring the Poseidon paper's
	// recommendation to bind the LFSR seed to the parameter set.
	seed := fmt.Sprintf("%s|T=%d|RF=%d|RP=%d", m, Width, rf, rp)
	for i, c := range []byte(seed) {
		for b := 0; b < 8 && i*8+b < len(g.state); b++ {
			g.state[i*8+b] = (c>>uint(b))&1 == 1
		}
	}
	for i := len(seed) * 8; i < len(g.state); i++ {
		g.state[i] = true
	}

	// Discard a warm-up window before producing output, as the Grain
	// construction requires.
	for i := 0; i < 160; i++ {
		g.update()
	}
}

// update steps the register by one bit using the Grain feedback taps,
// mirroring the teacher's GrainLFSR.update.
func (g *grainLFSR) update() bool {
	n := len(g.state)
	newBit := g.state[n-62] != g.state[n-51]
	newBit = newBit != g.state[n-38]
	newBit = newBit != g.state[n-23]
	newBit = newBit != g.state[n-13]
	newBit = newBit != g.state[0]

	copy(g.state[:n-1], g.state[1:])
	g.state[n-1] = newBit
	return newBit
}

// nextElement draws bits from the LFSR until it has enough to cover the
// modulus, then reduces the result into the field.
func (g *grainLFSR) nextElement(m *field.Modulus) field.Element {
	bitLen := m.Int().BitLen()
	value := new(big.Int)
	for i := 0; i < bitLen; i++ {
		value.Lsh(value, 1)
		if g.sampleBit() {
			value.SetBit(value, 0, 1)
		}
	}
	return m.NewFromBigInt(value)
}

// sampleBit samples a de-biased bit from the LFSR: draw pairs of raw bits
// and discard pairs where the first bit is zero, matching the rejection
// scheme the Poseidon paper's reference Grain generator uses.
func (g *grainLFSR) sampleBit() bool {
	for {
		bit1 := g.update()
		bit2 := g.update()
		if bit1 {
			return bit2
		}
	}
}
