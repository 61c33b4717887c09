package engine

import (
	"math"

	"github.com/roach88/fuzzkit/internal/ir"
)

// Membership returns the degree to which x belongs to set.
//
// Branches are evaluated in this order, with these exact bounds:
//
//	TRI(a,b,c):    0 if x≤a or x≥c; (x-a)/(b-a) if a<x≤b; (c-x)/(c-b) if b<x<c
//	TRAP(a,b,c,d): 0 if x≤a or x≥d; 1 if b≤x≤c; (x-a)/(b-a) if a<x<b; (d-x)/(d-c) if c<x<d
//
// A zero or non-finite quotient, or an x that matches no branch (NaN),
// yields DEGENERATE_MEMBERSHIP rather than NaN/Inf.
func Membership(set ir.FuzzySet, x float64) (float64, error) {
	if len(set.Points) != set.Shape.PointCount() || set.Shape.PointCount() == 0 {
		return 0, newError(ErrCodeInvalidShape, "%s with %d points", set.Shape, len(set.Points)).withSet(set.Name)
	}

	p := set.Points
	switch set.Shape {
	case ir.ShapeTriangular:
		a, b, c := p[0], p[1], p[2]
		switch {
		case x <= a || x >= c:
			return 0, nil
		case a < x && x <= b:
			return quotient(set.Name, x-a, b-a)
		case b < x && x < c:
			return quotient(set.Name, c-x, c-b)
		}
	case ir.ShapeTrapezoidal:
		a, b, c, d := p[0], p[1], p[2], p[3]
		switch {
		case x <= a || x >= d:
			return 0, nil
		case b <= x && x <= c:
			return 1, nil
		case a < x && x < b:
			return quotient(set.Name, x-a, b-a)
		case c < x && x < d:
			return quotient(set.Name, d-x, d-c)
		}
	}

	return 0, newError(ErrCodeDegenerateMembership, "no membership branch matches x=%v", x).withSet(set.Name)
}

func quotient(set string, num, den float64) (float64, error) {
	if den == 0 {
		return 0, newError(ErrCodeDegenerateMembership, "zero-width shape segment").withSet(set)
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, newError(ErrCodeDegenerateMembership, "non-finite degree %v/%v", num, den).withSet(set)
	}
	return q, nil
}
