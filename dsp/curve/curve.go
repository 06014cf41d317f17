// Package curve fits an odd-symmetric waveshaping polynomial to a cubic
// Bezier segment derived from four shape parameters. The fitted coefficient
// vector is stored highest degree first so the hot evaluation path can run
// in Horner form.
package curve

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-shaper/internal/linsolve"
)

const (
	// OrderMin is the smallest supported polynomial order. Below 5 the
	// constraint system has fewer rows than unknowns.
	OrderMin = 5
	// OrderMax is the largest supported polynomial order.
	OrderMax = 13
	// OrderDefault is the order used when none is configured.
	OrderDefault = 9

	// ShiftMin and ShiftMax bound the horizontal and vertical shift
	// parameters. The open margin around 0 and 1 keeps the tangent ratios
	// finite.
	ShiftMin = 0.1
	ShiftMax = 0.9
	// ShiftDefault is the neutral shift value.
	ShiftDefault = 0.5

	// ScaleMin and ScaleMax bound the top and bottom scale parameters.
	ScaleMin = 0.25
	ScaleMax = 1.75
	// ScaleDefault is the neutral scale value.
	ScaleDefault = 1.0
)

// ErrDegenerate indicates that the constraint system for the requested shape
// was (near-)singular and no coefficient vector could be produced.
var ErrDegenerate = errors.New("curve: degenerate curve shape")

// Point is a 2D control or sample point.
type Point struct {
	X, Y float64
}

// Params are the four user-facing shape parameters.
type Params struct {
	HShift      float64
	VShift      float64
	TopScale    float64
	BottomScale float64
}

// DefaultParams returns the neutral, identity-like shape.
func DefaultParams() Params {
	return Params{
		HShift:      ShiftDefault,
		VShift:      ShiftDefault,
		TopScale:    ScaleDefault,
		BottomScale: ScaleDefault,
	}
}

// Validate checks that all parameters are inside their working ranges.
func (p Params) Validate() error {
	if p.HShift < ShiftMin || p.HShift > ShiftMax {
		return fmt.Errorf("curve: horizontal shift must be in [%g, %g]: %g", ShiftMin, ShiftMax, p.HShift)
	}

	if p.VShift < ShiftMin || p.VShift > ShiftMax {
		return fmt.Errorf("curve: vertical shift must be in [%g, %g]: %g", ShiftMin, ShiftMax, p.VShift)
	}

	if p.TopScale < ScaleMin || p.TopScale > ScaleMax {
		return fmt.Errorf("curve: top scale must be in [%g, %g]: %g", ScaleMin, ScaleMax, p.TopScale)
	}

	if p.BottomScale < ScaleMin || p.BottomScale > ScaleMax {
		return fmt.Errorf("curve: bottom scale must be in [%g, %g]: %g", ScaleMin, ScaleMax, p.BottomScale)
	}

	return nil
}

// ControlPolygon builds the cubic Bezier control points for p. The endpoints
// are pinned to (0,0) and (1,1); the interior points pull the curve toward
// the shift point, scaled by the bottom and top scale factors.
func ControlPolygon(p Params) [4]Point {
	return [4]Point{
		{X: 0, Y: 0},
		{X: p.HShift * p.BottomScale, Y: p.VShift * p.BottomScale},
		{X: 1 + (p.HShift-1)*p.TopScale, Y: 1 + (p.VShift-1)*p.TopScale},
		{X: 1, Y: 1},
	}
}

// bezierAt evaluates the control polygon at parameter t by repeated linear
// interpolation (de Casteljau).
func bezierAt(cp [4]Point, t float64) Point {
	var work [3]Point

	sp := cp[:]
	for np := len(cp); np > 1; np-- {
		for i := 1; i < np; i++ {
			work[i-1].X = sp[i].X*t + sp[i-1].X*(1-t)
			work[i-1].Y = sp[i].Y*t + sp[i-1].Y*(1-t)
		}

		sp = work[:]
	}

	return sp[0]
}

// Tangent returns the slope used for linear extrapolation beyond the unit
// interval.
func Tangent(p Params) float64 {
	return (1 - p.VShift) / (1 - p.HShift)
}

// Fitter owns the scratch constraint matrix so repeated fits do not allocate.
// It is not safe for concurrent use.
type Fitter struct {
	matrix []float64
}

// NewFitter returns a fitter sized for the largest supported order.
func NewFitter() *Fitter {
	return &Fitter{matrix: make([]float64, OrderMax*(OrderMax+1))}
}

// FitInto fits a polynomial of the given order to the shape parameters and
// writes its coefficients into dst (highest degree first). It returns the
// extrapolation tangent. dst must have at least order elements.
func (f *Fitter) FitInto(dst []float64, p Params, order int) (float64, error) {
	if order < OrderMin || order > OrderMax {
		return 0, fmt.Errorf("curve: order must be in [%d, %d]: %d", OrderMin, OrderMax, order)
	}

	if err := p.Validate(); err != nil {
		return 0, err
	}

	if len(dst) < order {
		return 0, fmt.Errorf("curve: destination too short for order %d: %d", order, len(dst))
	}

	cp := ControlPolygon(p)
	f.buildMatrix(cp, p, order)

	if err := linsolve.Solve(dst[:order], f.matrix, order); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrDegenerate, err)
	}

	return Tangent(p), nil
}

// buildMatrix fills the augmented constraint matrix: four boundary rows
// (value and slope at both ends) plus order-4 rows sampling the Bezier curve
// at evenly spaced parameters.
func (f *Fitter) buildMatrix(cp [4]Point, p Params, order int) {
	n := order
	rs := n + 1

	k1 := p.VShift / p.HShift
	k2 := (1 - p.VShift) / (1 - p.HShift)

	m := f.matrix[:n*rs]
	for i := range m {
		m[i] = 0
	}

	// y(0) = 0
	r := m[0:rs]
	r[0] = 0
	r[1] = 1

	// y'(0) = k1
	r = m[rs : 2*rs]
	r[0] = k1
	r[2] = 1

	// y'(1) = k2
	r = m[2*rs : 3*rs]
	r[0] = k2
	for i := range n {
		r[i+1] = float64(i)
	}

	// y(1) = 1
	r = m[3*rs : 4*rs]
	for i := range rs {
		r[i] = 1
	}

	// Interior samples of the Bezier curve as power-series rows.
	s := 1.0 / float64(n-3)
	for j := range n - 4 {
		t := float64(j+1) * s
		pt := bezierAt(cp, t)

		r = m[(4+j)*rs : (5+j)*rs]
		r[0] = pt.Y

		x := 1.0
		for i := range n {
			r[i+1] = x
			x *= pt.X
		}
	}
}

// Eval evaluates the polynomial with the given coefficients (highest degree
// first) at x. The transfer is odd-symmetric; outside the unit interval the
// curve continues linearly with the given tangent. This is the per-sample
// hot path: no allocation, one branch for the extrapolation region.
func Eval(coeffs []float64, tangent, x float64) float64 {
	s := 1.0
	if x < 0 {
		s = -1.0
		x = -x
	}

	if x >= 1 {
		return (1 + (x-1)*tangent) * s
	}

	if len(coeffs) == 0 {
		return 0
	}

	y := coeffs[0]
	for _, c := range coeffs[1:] {
		y = y*x + c
	}

	return y * s
}

// Curve bundles a fitted coefficient vector with its tangent.
type Curve struct {
	coeffs  []float64
	tangent float64
}

// Fit is a convenience wrapper allocating a fresh Curve.
func Fit(p Params, order int) (*Curve, error) {
	coeffs := make([]float64, order)

	tangent, err := NewFitter().FitInto(coeffs, p, order)
	if err != nil {
		return nil, err
	}

	return &Curve{coeffs: coeffs, tangent: tangent}, nil
}

// Eval evaluates the fitted curve at x.
func (c *Curve) Eval(x float64) float64 {
	return Eval(c.coeffs, c.tangent, x)
}

// Order returns the polynomial order (degree + 1).
func (c *Curve) Order() int { return len(c.coeffs) }

// Tangent returns the extrapolation slope.
func (c *Curve) Tangent() float64 { return c.tangent }

// Coeffs returns a copy of the coefficient vector, highest degree first.
func (c *Curve) Coeffs() []float64 {
	out := make([]float64, len(c.coeffs))
	copy(out, c.coeffs)

	return out
}
