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

import "github.com/ctessum/sparse"

// reflect101 maps index p into [0, n) by mirroring about the edge bins
// without repeating them (…, 2, 1 | 0, 1, 2, …).
func reflect101(p, n int) int {
	if n == 1 {
		return 0
	}
	for p < 0 || p >= n {
		if p < 0 {
			p = -p
		}
		if p >= n {
			p = 2*n - 2 - p
		}
	}
	return p
}

// Filter2D returns the correlation of the two-dimensional array img with
// kernel, anchored at the center of the kernel:
//  out[i][j] = Σₖₗ kernel[k][l] · img[i+k-w0][j+l-w1].
// Values beyond the edges of img are mirrored back into it. The kernels
// returned by GaussianKernel are point-symmetric, so this is equivalent
// to convolution.
func Filter2D(img, kernel *sparse.DenseArray) *sparse.DenseArray {
	n0, n1 := img.Shape[0], img.Shape[1]
	k0, k1 := kernel.Shape[0], kernel.Shape[1]
	w0, w1 := k0/2, k1/2

	out := sparse.ZerosDense(n0, n1)

	// Precompute the source index along axis 1 for each output column
	// and kernel column.
	cols := make([]int, n1*k1)
	for j := 0; j < n1; j++ {
		for l := 0; l < k1; l++ {
			cols[j*k1+l] = reflect101(j+l-w1, n1)
		}
	}

	for k := 0; k < k0; k++ {
		for i := 0; i < n0; i++ {
			r := reflect101(i+k-w0, n0)
			src := img.Elements[r*n1 : (r+1)*n1]
			if isZero(src) { // most rows of a point-mass surface are empty
				continue
			}
			dst := out.Elements[i*n1 : (i+1)*n1]
			krow := kernel.Elements[k*k1 : (k+1)*k1]
			for j := 0; j < n1; j++ {
				c := cols[j*k1 : (j+1)*k1]
				var s float64
				for l, kv := range krow {
					s += kv * src[c[l]]
				}
				dst[j] += s
			}
		}
	}
	return out
}

func isZero(s []float64) bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}
