package smt

import (
	"fmt"
	"os"

	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/field"
	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/kvstore"
	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/poseidon"
)

// Tree is the big sparse Merkle tree engine: a fixed-height binary tree of
// up to 2^height leaves, with two persistent stores (leaves and an
// "interesting node" cache) and in-memory bookkeeping to avoid recomputing
// or re-reading nodes that haven't changed.
//
// A Tree is not safe for concurrent use; callers that need concurrent
// access must serialize their own calls.
type Tree struct {
	params *poseidon.Parameters
	height uint32
	empty  EmptyHashes

	leaves kvstore.Store
	cache  kvstore.Store

	leavesPath string
	cachePath  string

	// present holds every Coord whose subtree contains at least one stored
	// leaf (any inserted value, zero included, until it is removed). A
	// Coord absent from this set is known to equal the empty hash for its
	// height without any store lookup.
	present map[Coord]bool

	// pathCache memoizes node values recomputed during the operation
	// currently in flight, so ascending the same path twice (e.g. once to
	// decide presence, once to recompute a hash) doesn't re-read the
	// store or redo work. It is cleared at the start of every public
	// operation.
	pathCache map[Coord]field.Element

	root     field.Element
	poisoned bool
}

// New creates a Tree declared to hold width leaves, backed by fresh stores
// opened at leavesPath and cachePath. width must be a positive power of
// two; the tree's height is log2(width).
func New(params *poseidon.Parameters, width uint64, leavesPath, cachePath string) (*Tree, error) {
	height, err := heightOf(width)
	if err != nil {
		return nil, err
	}

	leaves, err := kvstore.Open(leavesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening leaf store: %v", ErrStorage, err)
	}
	cache, err := kvstore.Open(cachePath)
	if err != nil {
		leaves.Close()
		return nil, fmt.Errorf("%w: opening cache store: %v", ErrStorage, err)
	}

	empty := NewEmptyHashes(params, height)
	return &Tree{
		params:     params,
		height:     height,
		empty:      empty,
		leaves:     leaves,
		cache:      cache,
		leavesPath: leavesPath,
		cachePath:  cachePath,
		present:    make(map[Coord]bool),
		root:       empty.At(height),
	}, nil
}

// Height returns the tree's fixed height.
func (t *Tree) Height() uint32 {
	return t.height
}

// Root returns the current root hash.
func (t *Tree) Root() field.Element {
	return t.root
}

// Close releases both underlying stores and removes their on-disk
// directories, mirroring the original engine's teardown-on-drop behavior:
// a Tree's storage is never meant to outlive the Tree value itself.
func (t *Tree) Close() error {
	var firstErr error
	if err := t.leaves.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := os.RemoveAll(t.leavesPath); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := os.RemoveAll(t.cachePath); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// heightOf validates that width is a positive power of two and returns
// log2(width), per spec's "width must be a positive power of ARITY" (the
// tree's branching factor is fixed at 2).
func heightOf(width uint64) (uint32, error) {
	if width == 0 || width&(width-1) != 0 {
		return 0, fmt.Errorf("%w: width %d is not a positive power of two", ErrInvalidArgument, width)
	}
	height := uint32(0)
	for w := width; w > 1; w >>= 1 {
		height++
	}
	return height, nil
}

func (t *Tree) leafCoord(idx uint64) Coord {
	return Coord{Height: 0, Idx: idx}
}

func (t *Tree) checkIdx(idx uint64) error {
	if t.height < 63 && idx >= (uint64(1)<<t.height) {
		return fmt.Errorf("%w: leaf index %d out of range for height %d", ErrInvalidArgument, idx, t.height)
	}
	return nil
}

// InsertLeaf sets the leaf at idx to value, creating it if absent or
// overwriting it if already present, then recomputes every node on the
// path from that leaf to the root.
func (t *Tree) InsertLeaf(idx uint64, value field.Element) error {
	if t.poisoned {
		return ErrPoisoned
	}
	if err := t.checkIdx(idx); err != nil {
		return err
	}
	t.pathCache = make(map[Coord]field.Element)

	coord := t.leafCoord(idx)
	key := leafKey(idx)
	if err := t.leaves.Put(key, value.ToBytes()); err != nil {
		t.poisoned = true
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	t.markPresentPath(coord)
	if err := t.updateTree(idx); err != nil {
		t.poisoned = true
		return err
	}
	return nil
}

// RemoveLeaf clears the leaf at idx back to the empty value. Removing an
// already-empty leaf is a no-op, not an error: spec idempotence requires
// repeated removal to converge rather than fail.
func (t *Tree) RemoveLeaf(idx uint64) error {
	if t.poisoned {
		return ErrPoisoned
	}
	if err := t.checkIdx(idx); err != nil {
		return err
	}
	t.pathCache = make(map[Coord]field.Element)

	coord := t.leafCoord(idx)
	if !t.present[coord] {
		return nil
	}

	if err := t.leaves.Delete(leafKey(idx)); err != nil {
		t.poisoned = true
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	delete(t.present, coord)

	if err := t.updateTree(idx); err != nil {
		t.poisoned = true
		return err
	}
	return nil
}

// ProcessBatch applies every operation in order, stopping at the first
// error. Operations are NOT applied atomically: if op[i] fails, ops before
// it have already taken effect and the tree may be poisoned.
func (t *Tree) ProcessBatch(ops []Op) error {
	for _, op := range ops {
		var err error
		switch op.Action {
		case Insert:
			err = t.InsertLeaf(op.Idx, op.Value)
		case Remove:
			err = t.RemoveLeaf(op.Idx)
		default:
			err = fmt.Errorf("%w: unknown action %v", ErrInvalidArgument, op.Action)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// markPresentPath marks coord and every ancestor up to the root as
// present: inserting a leaf always makes its whole path non-empty.
func (t *Tree) markPresentPath(coord Coord) {
	for {
		t.present[coord] = true
		if coord.Height == t.height {
			return
		}
		coord = coord.parent()
	}
}

// updateTree ascends from the leaf at idx to the root, recomputing every
// node on that path, persisting to the cache store only those below the
// root whose two children are both present, then updates t.root. This is the core "update_tree" step: cheap because it only ever
// touches the single path from one leaf to the root.
func (t *Tree) updateTree(idx uint64) error {
	coord := t.leafCoord(idx)

	for coord.Height < t.height {
		parent := coord.parent()
		left := Coord{Height: coord.Height, Idx: parent.Idx * 2}
		right := Coord{Height: coord.Height, Idx: parent.Idx*2 + 1}

		leftVal, err := t.node(left)
		if err != nil {
			return err
		}
		rightVal, err := t.node(right)
		if err != nil {
			return err
		}
		value := poseidon.H2(t.params, leftVal, rightVal)
		t.pathCache[parent] = value

		bothPresent := t.present[left] && t.present[right]
		stillPresent := t.present[left] || t.present[right]
		if stillPresent {
			t.present[parent] = true
		} else {
			delete(t.present, parent)
		}

		var wasCached bool
		if parent.Height < t.height {
			_, found, err := t.cache.Get(coordKey(parent))
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
			wasCached = found
		}

		switch {
		case bothPresent:
			// "Interesting" per spec §4.G: only persisted when both
			// children are present, never on a single present child. The
			// root itself lives only in t.root, never in the cache store.
			if parent.Height < t.height {
				if err := t.cache.Put(coordKey(parent), value.ToBytes()); err != nil {
					return fmt.Errorf("%w: %v", ErrStorage, err)
				}
			}
		case wasCached:
			if parent.Height < t.height {
				if err := t.cache.Delete(coordKey(parent)); err != nil {
					return fmt.Errorf("%w: %v", ErrStorage, err)
				}
			}
			t.removeSubtreeFromCache(parent, 2)
		}

		coord = parent
	}

	root, err := t.node(Coord{Height: t.height, Idx: 0})
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// node returns the value of the subtree rooted at coord, consulting (in
// order) the presence set, the per-operation path cache, the persistent
// cache store, and finally recursing into both children — the same
// fallback chain the original on-demand "node" accessor uses.
func (t *Tree) node(coord Coord) (field.Element, error) {
	if !t.present[coord] {
		return t.empty.At(coord.Height), nil
	}

	if coord.Height == 0 {
		raw, found, err := t.leaves.Get(leafKey(coord.Idx))
		if err != nil {
			return field.Element{}, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if !found {
			// present says this leaf should exist; a miss here means the
			// store and the presence set have diverged.
			return field.Element{}, fmt.Errorf("%w: leaf %d marked present but missing from store", ErrStorage, coord.Idx)
		}
		value, err := t.params.Modulus.NewFromBytes(raw)
		if err != nil {
			return field.Element{}, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return value, nil
	}

	if v, ok := t.pathCache[coord]; ok {
		return v, nil
	}

	if coord.Height < t.height {
		raw, found, err := t.cache.Get(coordKey(coord))
		if err != nil {
			return field.Element{}, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if found {
			value, err := t.params.Modulus.NewFromBytes(raw)
			if err != nil {
				return field.Element{}, fmt.Errorf("%w: %v", ErrStorage, err)
			}
			t.pathCache[coord] = value
			return value, nil
		}
	}

	left := Coord{Height: coord.Height - 1, Idx: coord.Idx * 2}
	right := Coord{Height: coord.Height - 1, Idx: coord.Idx*2 + 1}
	leftVal, err := t.node(left)
	if err != nil {
		return field.Element{}, err
	}
	rightVal, err := t.node(right)
	if err != nil {
		return field.Element{}, err
	}
	value := poseidon.H2(t.params, leftVal, rightVal)
	t.pathCache[coord] = value
	return value, nil
}

// removeSubtreeFromCache evicts coord's cache entry, then recurses into
// whichever of coord's two children is still present, decrementing depth
// at each descent, stopping once depth reaches zero. This reproduces the
// original engine's documented bug rather than fixing it: the two
// "children" it examines are always addressed at height 0 — coord.Idx*2
// and coord.Idx*2+1 at Height 0 — regardless of coord's actual height, so
// for any coord above height 1 this sweeps the wrong nodes entirely. For
// trees deeper than 2 this leaves stale cache entries behind under the
// real subtree; presence-gated reads in node() mask the staleness since a
// node absent from present is never read from the cache store at all.
// See the corresponding Open Question decision: preserved verbatim, not
// corrected to a real per-height recursive sweep.
func (t *Tree) removeSubtreeFromCache(coord Coord, depth int) {
	if depth == 0 {
		return
	}
	if err := t.cache.Delete(coordKey(coord)); err != nil {
		t.poisoned = true
		return
	}

	left := Coord{Height: 0, Idx: coord.Idx * 2}
	right := Coord{Height: 0, Idx: coord.Idx*2 + 1}
	if t.present[left] {
		t.removeSubtreeFromCache(left, depth-1)
	}
	if t.present[right] {
		t.removeSubtreeFromCache(right, depth-1)
	}
}

func leafKey(idx uint64) []byte {
	return kvstore.EncodeLeafKey(idx)
}

func coordKey(c Coord) []byte {
	return kvstore.EncodeCoordKey(c.Height, c.Idx)
}
