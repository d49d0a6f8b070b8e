package datamodels

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Tolerance follows numpy's assert_allclose: |a-b| <= Atol + Rtol*|b|.
type Tolerance struct {
	Rtol float64
	Atol float64
}

// DefaultTolerance matches assert_allclose defaults.
var DefaultTolerance = Tolerance{Rtol: 1e-7}

// KeywordDiff is one header keyword that differs between two models.
type KeywordDiff struct {
	Name string
	A, B any
}

// DiffReport summarises how two models differ.
type DiffReport struct {
	ShapeA        [2]int
	ShapeB        [2]int
	Pixels        int
	Differing     int
	MaxAbsDiff    float64
	Keywords      []KeywordDiff
	shapeMismatch bool
}

// DataEqual reports whether the science arrays agree within tolerance.
func (r *DiffReport) DataEqual() bool {
	return !r.shapeMismatch && r.Differing == 0
}

func (r *DiffReport) String() string {
	if r.shapeMismatch {
		return fmt.Sprintf("shape mismatch: %dx%d vs %dx%d", r.ShapeA[0], r.ShapeA[1], r.ShapeB[0], r.ShapeB[1])
	}
	return fmt.Sprintf("%d/%d pixels differ, max |a-b| = %g, %d header keywords differ",
		r.Differing, r.Pixels, r.MaxAbsDiff, len(r.Keywords))
}

// Diff compares a against b. NaNs at the same position compare equal.
func Diff(a, b Model, tol Tolerance) *DiffReport {
	ar, ac := a.Shape()
	br, bc := b.Shape()
	rep := &DiffReport{ShapeA: [2]int{ar, ac}, ShapeB: [2]int{br, bc}}
	rep.Keywords = diffKeywords(a.Meta(), b.Meta())
	if ar != br || ac != bc {
		rep.shapeMismatch = true
		return rep
	}

	rep.Pixels = ar * ac
	deltas := make([]float64, 0, rep.Pixels)
	for i := 0; i < ar; i++ {
		rowA, rowB := a.Data().RawRowView(i), b.Data().RawRowView(i)
		d := make([]float64, ac)
		floats.SubTo(d, rowA, rowB)
		for j := range d {
			x, y := rowA[j], rowB[j]
			switch {
			case math.IsNaN(x) && math.IsNaN(y):
				d[j] = 0
				continue
			case math.IsNaN(x) || math.IsNaN(y):
				d[j] = math.Inf(1)
			case x == y:
				d[j] = 0
			default:
				d[j] = math.Abs(d[j])
			}
			if d[j] > tol.Atol+tol.Rtol*math.Abs(y) {
				rep.Differing++
			}
		}
		deltas = append(deltas, d...)
	}
	if len(deltas) > 0 {
		rep.MaxAbsDiff = floats.Max(deltas)
	}
	return rep
}

func diffKeywords(a, b *Meta) []KeywordDiff {
	seen := make(map[string]bool)
	var names []string
	for _, k := range append(a.Keys(), b.Keys()...) {
		if !seen[k] {
			seen[k] = true
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var out []KeywordDiff
	for _, k := range names {
		va, okA := a.Keyword(k)
		vb, okB := b.Keyword(k)
		if okA && okB && fmt.Sprint(va) == fmt.Sprint(vb) {
			continue
		}
		out = append(out, KeywordDiff{Name: k, A: va, B: vb})
	}
	return out
}
