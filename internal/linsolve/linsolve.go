// Package linsolve solves the small dense linear systems produced by the
// curve fitter. Systems are stored as flat row-major augmented matrices with
// row stride n+1: column 0 holds the right-hand side of each equation and
// columns 1..n hold the coefficients of x^0..x^(n-1).
package linsolve

import (
	"errors"
	"math"
)

// ErrSingular indicates a (near-)singular system: some pivot stayed below
// the pivot threshold after row exchange.
var ErrSingular = errors.New("linsolve: singular system")

const pivotEps = 1e-12

// Solve triangulates the augmented n x (n+1) matrix m in place and writes
// the solution into dst, highest-degree coefficient first. dst must have at
// least n elements.
func Solve(dst, m []float64, n int) error {
	if err := Triangulate(m, n); err != nil {
		return err
	}

	BackSubstitute(dst, m, n)

	return nil
}

// Triangulate reduces m in place so that row i keeps nonzero coefficient
// entries only in columns 1..i+1. Pivot rows are processed bottom-up; a row
// with a usable pivot is swapped in from above when the current pivot
// vanishes.
func Triangulate(m []float64, n int) error {
	rs := n + 1

	for i := n - 1; i > 0; i-- {
		r := m[rs*i : rs*i+rs]

		// Bring a usable pivot into position i.
		if math.Abs(r[i+1]) <= pivotEps {
			for k := i - 1; k >= 0; k-- {
				xr := m[rs*k : rs*k+rs]
				if math.Abs(xr[i+1]) > pivotEps {
					swapRows(r, xr)
					break
				}
			}
		}

		if math.Abs(r[i+1]) <= pivotEps {
			return ErrSingular
		}

		// Eliminate column i+1 from all rows above.
		for k := i - 1; k >= 0; k-- {
			xr := m[rs*k : rs*k+rs]
			if xr[i+1] == 0 {
				continue
			}

			subtractScaled(xr, r, xr[i+1]/r[i+1], i+2)
		}
	}

	if math.Abs(m[1]) <= pivotEps {
		return ErrSingular
	}

	return nil
}

// BackSubstitute computes the solution of a triangulated system, walking rows
// top-down and accumulating already-solved low-order coefficients. dst[0]
// receives the highest-degree coefficient so callers can evaluate the
// polynomial in Horner form directly.
func BackSubstitute(dst, m []float64, n int) {
	rs := n + 1

	for i := range n {
		r := m[rs*i : rs*i+rs]
		s := r[0]

		for j := range i {
			s -= r[j+1] * dst[n-j-1]
		}

		dst[n-i-1] = s / r[i+1]
	}
}

func swapRows(a, b []float64) {
	for i := range a {
		a[i], b[i] = b[i], a[i]
	}
}

func subtractScaled(r, x []float64, k float64, n int) {
	for i := range n {
		r[i] -= x[i] * k
	}
}
