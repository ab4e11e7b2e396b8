/*
Copyright © 2019 the starpdf authors.
This file is part of starpdf.

starpdf is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

starpdf is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with starpdf.  If not, see <http://www.gnu.org/licenses/>.
*/

package starpdf

import (
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KernelConfig specifies how smoothing kernels are constructed.
type KernelConfig struct {
	// NSigma is the half-width of the kernel in standard deviations.
	NSigma float64

	// MinWidth is the minimum half-width of the kernel in bins.
	MinWidth int

	// AddDiagonal, if > 0, is a standard deviation in units of bin
	// widths added in quadrature along each axis of the covariance,
	// setting a floor on the amount of smoothing.
	AddDiagonal float64

	// Subsample is the factor by which the kernel is oversampled before
	// being averaged down to the grid resolution.
	Subsample int
}

// DefaultKernel is the kernel configuration used for stellar surfaces.
var DefaultKernel = KernelConfig{
	NSigma:      5,
	MinWidth:    2,
	AddDiagonal: 1,
	Subsample:   5,
}

// broaden returns the inverse of (ic⁻¹ + diag(d0², d1²)).
func broaden(ic InvCov, d0, d1 float64) InvCov {
	det := ic.Det() + DetRegularization
	cov := mat.NewSymDense(2, []float64{
		ic.A11 / det, -ic.A01 / det,
		-ic.A01 / det, ic.A00 / det,
	})
	cov.SetSym(0, 0, cov.At(0, 0)+d0*d0)
	cov.SetSym(1, 1, cov.At(1, 1)+d1*d1)

	var inv mat.Dense
	if err := inv.Inverse(cov); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return ic
		}
	}
	return InvCov{A00: inv.At(0, 0), A01: inv.At(0, 1), A11: inv.At(1, 1)}
}

// GaussianKernel returns a smoothing kernel for a Gaussian with inverse
// covariance ic, on a grid with the bin widths of rect. The kernel has
// dimensions (2·w0+1, 2·w1+1), where each half-width w is
// max(MinWidth, ⌈NSigma·σ/dx⌉). It is computed on a grid Subsample times
// finer than rect and then area-averaged down to the resolution of rect,
// which avoids discretization error for kernels only a few bins wide.
//
// The kernel is normalized so that its central value is 1, not so that
// it sums to 1.
func GaussianKernel(ic InvCov, rect *Rect, cfg KernelConfig) *sparse.DenseArray {
	if cfg.AddDiagonal > 0 {
		ic = broaden(ic, cfg.AddDiagonal*rect.Dx[0], cfg.AddDiagonal*rect.Dx[1])
	}
	sub := cfg.Subsample
	if sub < 1 {
		sub = 1
	}

	sigma := ic.Sigma()
	var width [2]int
	for i := 0; i < 2; i++ {
		w := math.Ceil(cfg.NSigma * sigma[i] / rect.Dx[i])
		switch {
		case math.IsNaN(w) || w < float64(cfg.MinWidth):
			width[i] = cfg.MinWidth
		case w > float64(rect.NBins[i]):
			// Kernels wider than the grid only add reflected mass.
			width[i] = maxInt(cfg.MinWidth, rect.NBins[i])
		default:
			width[i] = int(w)
		}
	}
	w, h := 2*width[0]+1, 2*width[1]+1
	wSub, hSub := sub*w, sub*h
	w0 := 0.5 * float64(wSub-1)
	h0 := 0.5 * float64(hSub-1)

	// Evaluate on the fine grid.
	fine := make([]float64, wSub*hSub)
	for i := 0; i < wSub; i++ {
		dx := (float64(i) - w0) * rect.Dx[0] / float64(sub)
		cxx := ic.A00 * dx * dx
		for j := 0; j < hSub; j++ {
			dy := (float64(j) - h0) * rect.Dx[1] / float64(sub)
			cxy := ic.A01 * dx * dy
			cyy := ic.A11 * dy * dy
			fine[i*hSub+j] = math.Exp(-0.5 * (cxx + 2*cxy + cyy))
		}
	}

	// Average each sub×sub block.
	k := sparse.ZerosDense(w, h)
	norm := 1 / float64(sub*sub)
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			var s float64
			for ii := i * sub; ii < (i+1)*sub; ii++ {
				s += floats.Sum(fine[ii*hSub+j*sub : ii*hSub+(j+1)*sub])
			}
			k.Elements[i*h+j] = s * norm
		}
	}

	c := k.Elements[width[0]*h+width[1]]
	if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		// The Gaussian is too narrow to resolve; use a delta function.
		for i := range k.Elements {
			k.Elements[i] = 0
		}
		k.Elements[width[0]*h+width[1]] = 1
		return k
	}
	for i := range k.Elements {
		k.Elements[i] /= c
	}
	return k
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
