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

// EBVSmoothing specifies how much the stellar surfaces of a pixel are
// smoothed along the reddening axis. The smoothing is a fraction of the
// reddening, which depends linearly on reddening with coefficients that
// depend linearly on the HEALPix nside of the pixel:
//  pct(E) = α·E + β,  α = AlphaCoeff[0] + AlphaCoeff[1]·nside,
//                     β = BetaCoeff[0] + BetaCoeff[1]·nside,
// clipped to [PctMin, PctMax].
type EBVSmoothing struct {
	AlphaCoeff [2]float64
	BetaCoeff  [2]float64
	PctMin     float64
	PctMax     float64
}

// PctSmoothingMax returns the largest fractional smoothing. Smoothing is
// disabled when it is <= 0.
func (s *EBVSmoothing) PctSmoothingMax() float64 { return s.PctMax }

// CalcPctSmoothing returns the fractional smoothing at n evenly spaced
// reddenings from EBVMin to EBVMax inclusive.
func (s *EBVSmoothing) CalcPctSmoothing(nside uint32, EBVMin, EBVMax float64, n int) []float64 {
	alpha := s.AlphaCoeff[0] + s.AlphaCoeff[1]*float64(nside)
	beta := s.BetaCoeff[0] + s.BetaCoeff[1]*float64(nside)

	var dEBV float64
	if n > 1 {
		dEBV = (EBVMax - EBVMin) / float64(n-1)
	}
	o := make([]float64, n)
	for i := range o {
		pct := alpha*(EBVMin+float64(i)*dEBV) + beta
		if pct > s.PctMax {
			pct = s.PctMax
		} else if pct < s.PctMin {
			pct = s.PctMin
		}
		o[i] = pct
	}
	return o
}

// SigmaPix returns the smoothing width, in bins, of each reddening bin of
// rect for a pixel with the given nside. The fractional smoothing of bin
// i is multiplied by the bin index i, which is proportional to the
// reddening for grids starting at E = 0.
func (s *EBVSmoothing) SigmaPix(nside uint32, rect *Rect) []float64 {
	sigma := s.CalcPctSmoothing(nside, rect.Min[0], rect.Max[0], rect.NBins[0])
	for i := range sigma {
		sigma[i] *= float64(i)
	}
	return sigma
}
