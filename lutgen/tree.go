package lutgen

import (
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// sample pairs a source colour with the colour it was graded to.
type sample struct {
	pos [3]float64
	out [3]float64
	idx int
}

func (s sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return s.pos[d] - c.(sample).pos[d]
}

func (s sample) Dims() int { return 3 }

// Distance returns the squared euclidean distance between the source colours.
func (s sample) Distance(c kdtree.Comparable) float64 {
	q := c.(sample)
	var sum float64
	for i, v := range s.pos {
		d := v - q.pos[i]
		sum += d * d
	}
	return sum
}

type samples []sample

// Bounds returns the box spanned by the source colours.
func (s samples) Bounds() *kdtree.Bounding {
	if len(s) == 0 {
		return nil
	}
	lo, hi := s[0], s[0]
	for _, p := range s[1:] {
		for d, v := range p.pos {
			lo.pos[d] = min(lo.pos[d], v)
			hi.pos[d] = max(hi.pos[d], v)
		}
	}
	return &kdtree.Bounding{Min: sample{pos: lo.pos}, Max: sample{pos: hi.pos}}
}

func (s samples) Index(i int) kdtree.Comparable         { return s[i] }
func (s samples) Len() int                              { return len(s) }
func (s samples) Pivot(d kdtree.Dim) int                { return plane{samples: s, Dim: d}.Pivot() }
func (s samples) Slice(start, end int) kdtree.Interface { return s[start:end] }

// plane sorts samples along one axis while the tree is built.
type plane struct {
	kdtree.Dim
	samples
}

func (p plane) Less(i, j int) bool { return p.samples[i].pos[p.Dim] < p.samples[j].pos[p.Dim] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Swap(i, j int)      { p.samples[i], p.samples[j] = p.samples[j], p.samples[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.samples = p.samples[start:end]
	return p
}

// newTree indexes pts by source colour, with the bounding box of every
// subtree. pts itself is left in order.
func newTree(pts []sample) *kdtree.Tree {
	return kdtree.New(samples(slices.Clone(pts)), true)
}

// dedupMin is the sample count from which near-duplicates are collapsed.
const dedupMin = 1000

// dedup keeps the first sample of every group whose source colours lie
// within tol of it.
func dedup(pts []sample, tol float64) []sample {
	if len(pts) < dedupMin {
		return pts
	}
	for i := range pts {
		pts[i].idx = i
	}
	tree := newTree(pts)
	used := make([]bool, len(pts))
	unique := make([]sample, 0, len(pts))
	for i, p := range pts {
		if used[i] {
			continue
		}
		unique = append(unique, p)
		keep := kdtree.NewDistKeeper(tol * tol)
		tree.NearestSet(keep, p)
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			used[c.Comparable.(sample).idx] = true
		}
	}
	return unique
}

// nearestN returns up to n samples closest to q, closest first.
func nearestN(tree *kdtree.Tree, q [3]float64, n int) []sample {
	keep := kdtree.NewNKeeper(n)
	tree.NearestSet(keep, sample{pos: q})
	near := make([]sample, 0, n)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		near = append(near, c.Comparable.(sample))
	}
	return near
}
