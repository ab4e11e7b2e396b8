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
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
)

// ImgStack holds one (E, μ) surface per star, all on the same grid.
type ImgStack struct {
	Rect *Rect
	Img  []*sparse.DenseArray
}

// NewImgStack returns a stack of n zeroed surfaces on rect.
func NewImgStack(n int, rect *Rect) *ImgStack {
	s := &ImgStack{Rect: rect, Img: make([]*sparse.DenseArray, n)}
	for i := range s.Img {
		s.InitializeToZero(i)
	}
	return s
}

// InitializeToZero replaces surface i with zeros.
func (s *ImgStack) InitializeToZero(i int) {
	s.Img[i] = sparse.ZerosDense(s.Rect.NBins[0], s.Rect.NBins[1])
}

// Crop restricts every surface to the bins of the sub-grid covering
// [min, max).
func (s *ImgStack) Crop(min, max [2]float64) error {
	r, start, err := s.Rect.Crop(min, max)
	if err != nil {
		return err
	}
	n1 := s.Rect.NBins[1]
	for k, img := range s.Img {
		o := sparse.ZerosDense(r.NBins[0], r.NBins[1])
		for i := 0; i < r.NBins[0]; i++ {
			srcRow := (start[0]+i)*n1 + start[1]
			copy(o.Elements[i*r.NBins[1]:(i+1)*r.NBins[1]], img.Elements[srcRow:srcRow+r.NBins[1]])
		}
		s.Img[k] = o
	}
	s.Rect = r
	return nil
}

// Smooth convolves every surface along axis 0 with a Gaussian whose
// standard deviation, in bins, varies with the output row: row i is
// smoothed with sigma[i]. Kernels are truncated at nSigma standard
// deviations and at the grid edges, and renormalized to unit sum over
// the rows they cover. Rows with sigma <= 0 are left unchanged.
func (s *ImgStack) Smooth(sigma []float64, nSigma float64) error {
	n0, n1 := s.Rect.NBins[0], s.Rect.NBins[1]
	if len(sigma) != n0 {
		return fmt.Errorf("starpdf: %d smoothing widths for %d rows", len(sigma), n0)
	}

	// The row weights are the same for every surface.
	type rowKernel struct {
		lo      int
		weights []float64
	}
	kernels := make([]rowKernel, n0)
	for i, sig := range sigma {
		if !(sig > 0) || math.IsInf(sig, 0) {
			kernels[i] = rowKernel{lo: i, weights: []float64{1}}
			continue
		}
		width := int(math.Ceil(nSigma * sig))
		lo, hi := i-width, i+width
		if lo < 0 {
			lo = 0
		}
		if hi > n0-1 {
			hi = n0 - 1
		}
		a := -0.5 / (sig * sig)
		w := make([]float64, hi-lo+1)
		var norm float64
		for j := lo; j <= hi; j++ {
			d := float64(j - i)
			w[j-lo] = math.Exp(a * d * d)
			norm += w[j-lo]
		}
		for j := range w {
			w[j] /= norm
		}
		kernels[i] = rowKernel{lo: lo, weights: w}
	}

	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < len(s.Img); ii += nprocs {
				img := s.Img[ii]
				o := sparse.ZerosDense(n0, n1)
				for i, k := range kernels {
					dst := o.Elements[i*n1 : (i+1)*n1]
					for jj, w := range k.weights {
						src := img.Elements[(k.lo+jj)*n1 : (k.lo+jj+1)*n1]
						for j, v := range src {
							dst[j] += w * v
						}
					}
				}
				s.Img[ii] = o
			}
		}(pp)
	}
	wg.Wait()
	return nil
}
