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
	"testing"

	"github.com/ctessum/sparse"
)

const testTolerance = 1.e-8

var testExtinction = &TableExtinction{
	RV0: 3.1,
	A0:  [NBands]float64{3.2, 2.2, 1.6, 1.2, 1.0},
}

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// syntheticStar returns noiseless photometry of a star with absolute
// magnitudes sed at distance modulus mu and reddening E. Bands not in
// use are marked missing.
func syntheticStar(sed SED, mu, E float64, use ...int) *Magnitudes {
	var m, err [NBands]float64
	for i := range err {
		err[i] = 10 * MissingErr
	}
	for _, i := range use {
		m[i] = sed[i] + mu + E*testExtinction.A(3.1, i)
		err[i] = 0.01
	}
	return NewMagnitudes(m, err)
}

// permutedModel presents the stellar types of a StellarModel in a
// different order.
type permutedModel struct {
	StellarModel
	perm []int
}

func (p permutedModel) SED(iMr, iFeH int) (SED, float64, float64, bool) {
	k := p.perm[iMr*p.NFeH()+iFeH]
	return p.StellarModel.SED(k/p.NFeH(), k%p.NFeH())
}

func arrayCompare(have, want *sparse.DenseArray, tolerance float64, name string, t *testing.T) {
	if len(have.Shape) != len(want.Shape) || have.Shape[0] != want.Shape[0] || have.Shape[1] != want.Shape[1] {
		t.Errorf("%s: want shape %v but have shape %v", name, want.Shape, have.Shape)
		return
	}
	for i, wantv := range want.Elements {
		havev := have.Elements[i]
		if math.IsNaN(havev) || math.IsInf(havev, 0) {
			t.Errorf("%s, element %d: is %g", name, i, havev)
		}
		if havev == wantv {
			continue
		}
		if math.Abs(havev-wantv) > tolerance {
			t.Errorf("%s, element %d: want %g but have %g", name, i, wantv, havev)
		}
	}
}
