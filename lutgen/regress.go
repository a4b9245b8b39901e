package lutgen

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
	"gonum.org/v1/gonum/spatial/kdtree"

	"lutgrade/parallel"
)

const (
	// simplexNeighbours is the first candidate set searched for a
	// tetrahedron around a grid point. It grows fourfold up to every
	// sample before the point is left undefined.
	simplexNeighbours = 12
	// quadraticNeighbours feed the local least-squares fit of Cubic.
	quadraticNeighbours = 20
	quadraticTerms      = 10

	// lpTolerance bounds the reduced costs of the simplex solution.
	lpTolerance = 1e-10
	// flatVariance is the smallest spread, along any axis of the sample
	// cloud, that still encloses a volume.
	flatVariance = 1e-12
)

// gridPoint returns the colour at grid index i of an n-sized table, with
// r as the slowest axis.
func gridPoint(i, n int) [3]float64 {
	scale := 1 / float64(n-1)
	return [3]float64{
		float64(i/(n*n)) * scale,
		float64(i/n%n) * scale,
		float64(i%n) * scale,
	}
}

// regress evaluates method at every point of an n-sized grid and writes the
// interleaved result into out. Points the method cannot resolve are NaN.
func regress(tree *kdtree.Tree, method Method, n int, out []float64, workers int) {
	parallel.Rows(n*n*n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			q := gridPoint(i, n)
			var c [3]float64
			switch method {
			case Nearest:
				c = nearest(tree, q)
			case Cubic:
				c = quadratic(tree, q)
			default:
				c = barycentric(tree, q)
			}
			copy(out[i*3:i*3+3], c[:])
		}
	})
}

// backfill replaces NaN grid entries with the nearest sample and returns
// how many were filled.
func backfill(tree *kdtree.Tree, n int, out []float64) int {
	var filled int
	for i := range n * n * n {
		c := out[i*3 : i*3+3]
		if !math.IsNaN(c[0]) && !math.IsNaN(c[1]) && !math.IsNaN(c[2]) {
			continue
		}
		v := nearest(tree, gridPoint(i, n))
		copy(c, v[:])
		filled++
	}
	return filled
}

func nearest(tree *kdtree.Tree, q [3]float64) [3]float64 {
	c, _ := tree.Nearest(sample{pos: q})
	if c == nil {
		return undefined()
	}
	return c.(sample).out
}

func undefined() [3]float64 {
	nan := math.NaN()
	return [3]float64{nan, nan, nan}
}

// barycentric interpolates q inside the Delaunay tetrahedron of the
// samples that contains it. Lifting every sample p to |p-q|² turns the
// search into a linear program over convex weights w:
//
//	minimize Σ wᵢ|pᵢ-q|²  s.t.  Σ wᵢpᵢ = q, Σ wᵢ = 1, w ≥ 0
//
// whose basic optimum has at most four nonzero weights, the corners of that
// tetrahedron. q is undefined only when no candidate set up to the whole
// tree contains it.
func barycentric(tree *kdtree.Tree, q [3]float64) [3]float64 {
	if tree.Count < 4 || !tree.Root.Bounding.Contains(sample{pos: q}) {
		return undefined()
	}
	for k := simplexNeighbours; ; k *= 4 {
		k = min(k, tree.Count)
		if c, ok := simplex(nearestN(tree, q, k), q); ok {
			return c
		}
		if k == tree.Count {
			return undefined()
		}
	}
}

// simplex solves the lifted program over near. It fails when q is outside
// their hull or when they do not span a volume.
func simplex(near []sample, q [3]float64) ([3]float64, bool) {
	var out [3]float64
	if len(near) < 4 {
		return out, false
	}
	a := mat.NewDense(4, len(near), nil)
	cost := make([]float64, len(near))
	for j, s := range near {
		a.Set(0, j, s.pos[0])
		a.Set(1, j, s.pos[1])
		a.Set(2, j, s.pos[2])
		a.Set(3, j, 1)
		d := sub(s.pos, q)
		cost[j] = dot(d, d)
	}
	_, w, err := lp.Simplex(cost, a, []float64{q[0], q[1], q[2], 1}, lpTolerance, nil)
	if err != nil {
		return out, false
	}
	for j, s := range near {
		if w[j] == 0 {
			continue
		}
		for ch := range out {
			out[ch] += w[j] * s.out[ch]
		}
	}
	return out, true
}

// flat reports whether the source colours of pts lie on a plane, a line or
// a point, where no tetrahedron can be formed.
func flat(pts []sample) bool {
	if len(pts) < 4 {
		return true
	}
	var mean [3]float64
	for _, p := range pts {
		for d := range mean {
			mean[d] += p.pos[d]
		}
	}
	for d := range mean {
		mean[d] /= float64(len(pts))
	}
	cov := mat.NewSymDense(3, nil)
	for _, p := range pts {
		d := sub(p.pos, mean)
		for i := range 3 {
			for j := i; j < 3; j++ {
				cov.SetSym(i, j, cov.At(i, j)+d[i]*d[j]/float64(len(pts)))
			}
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return true
	}
	return slices.Min(eig.Values(nil)) < flatVariance
}

// quadratic fits r, g and b as quadratics of the source colour around q,
// weighting samples by inverse squared distance. It is only evaluated where
// q is inside the sample hull, and falls back to the linear value when the
// neighbourhood does not determine a quadratic.
func quadratic(tree *kdtree.Tree, q [3]float64) [3]float64 {
	lin := barycentric(tree, q)
	if math.IsNaN(lin[0]) {
		return lin
	}
	near := nearestN(tree, q, quadraticNeighbours)
	if len(near) < quadraticTerms {
		return lin
	}

	a := mat.NewDense(len(near), quadraticTerms, nil)
	y := mat.NewDense(len(near), 3, nil)
	row := make([]float64, quadraticTerms)
	for i, s := range near {
		d := sub(s.pos, q)
		w := math.Sqrt(1 / (dot(d, d) + 1e-6))
		row[0] = 1
		row[1], row[2], row[3] = d[0], d[1], d[2]
		row[4], row[5], row[6] = d[0]*d[0], d[1]*d[1], d[2]*d[2]
		row[7], row[8], row[9] = d[0]*d[1], d[0]*d[2], d[1]*d[2]
		for j := range row {
			row[j] *= w
		}
		a.SetRow(i, row)
		y.SetRow(i, []float64{s.out[0] * w, s.out[1] * w, s.out[2] * w})
	}

	var x mat.Dense
	if err := x.Solve(a, y); err != nil {
		return lin
	}
	// coordinates are centred on q, so the constant term is the value at q
	out := [3]float64{x.At(0, 0), x.At(0, 1), x.At(0, 2)}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return lin
		}
	}
	return out
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
