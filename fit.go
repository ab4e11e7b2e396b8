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

import "math"

// InvCov is a symmetric 2×2 inverse covariance matrix
//  [A00 A01]
//  [A01 A11]
type InvCov struct {
	A00, A01, A11 float64
}

// Det returns the determinant of the matrix.
func (c InvCov) Det() float64 {
	return c.A00*c.A11 - c.A01*c.A01
}

// Sigma returns the standard deviation along each axis of the covariance
// matrix that c is the inverse of, with DetRegularization added to the
// determinant.
func (c InvCov) Sigma() [2]float64 {
	det := c.Det() + DetRegularization
	return [2]float64{math.Sqrt(c.A11 / det), math.Sqrt(c.A00 / det)}
}

// Transpose returns the inverse covariance with the axes swapped.
func (c InvCov) Transpose() InvCov {
	return InvCov{A00: c.A11, A01: c.A01, A11: c.A00}
}

// LinearFit is the maximum-likelihood (μ, E) of a star for one stellar
// type.
type LinearFit struct {
	Mean   [2]float64 // (μ, E)
	InvCov InvCov     // inverse covariance of Mean
	Chi2   float64
}

// StarCovariance returns the inverse covariance of the maximum-likelihood
// (μ, E) of the star with photometry m:
//  A00 = Σ 1/σ², A01 = Σ A/σ², A11 = Σ A²/σ²,
// where the sums run over non-missing bands. It does not depend on the
// stellar type.
func StarCovariance(m *Magnitudes, ext ExtinctionModel, RV float64) InvCov {
	var c InvCov
	for i := 0; i < NBands; i++ {
		ivar := m.ivar(i)
		if ivar == 0 {
			continue
		}
		A := ext.A(RV, i)
		c.A00 += ivar
		c.A01 += A * ivar
		c.A11 += A * A * ivar
	}
	return c
}

// StarMaxLikelihood returns the maximum-likelihood distance modulus mu and
// reddening E of the star with photometry m, assuming it has the
// absolute magnitudes sed, along with the chi-square of that solution.
// ic is the star's inverse covariance, as returned by StarCovariance.
//
// The model m_i - M_i = μ + E·A_i is linear in (μ, E), so the solution
// follows from the 2×2 normal equations:
//  (1 + C) (μ E)ᵀ = (μ₀ E₀)ᵀ
// where μ₀ and E₀ are the single-parameter estimates and C holds the
// off-diagonal terms normalized by the diagonal.
func StarMaxLikelihood(sed *SED, m *Magnitudes, ext ExtinctionModel, ic InvCov, RV float64) (mu, E, chi2 float64) {
	var dmOverSigma2, dmAOverSigma2 float64
	for i := 0; i < NBands; i++ {
		ivar := m.ivar(i)
		if ivar == 0 {
			continue
		}
		dm := m.M[i] - sed[i]
		dmOverSigma2 += dm * ivar
		dmAOverSigma2 += dm * ext.A(RV, i) * ivar
	}

	mu0 := dmOverSigma2 / ic.A00
	E0 := dmAOverSigma2 / ic.A11

	C01 := ic.A01 / ic.A00
	C10 := ic.A01 / ic.A11

	detInv := 1 / (1 - C01*C10)
	mu = detInv * (mu0 - C01*E0)
	E = detInv * (E0 - C10*mu0)

	chi2 = StarChi2(m, ext, sed, mu, E, RV)
	return mu, E, chi2
}

// FitSED returns the maximum-likelihood fit of sed to m, including the
// inverse covariance of the solution.
func FitSED(sed *SED, m *Magnitudes, ext ExtinctionModel, RV float64) LinearFit {
	ic := StarCovariance(m, ext, RV)
	mu, E, chi2 := StarMaxLikelihood(sed, m, ext, ic, RV)
	return LinearFit{
		Mean:   [2]float64{mu, E},
		InvCov: ic,
		Chi2:   chi2,
	}
}

// StarChi2 returns the chi-square of the photometry m given the stellar
// type sed at distance modulus mu and reddening E.
func StarChi2(m *Magnitudes, ext ExtinctionModel, sed *SED, mu, E, RV float64) float64 {
	var chi2 float64
	for i := 0; i < NBands; i++ {
		ivar := m.ivar(i)
		if ivar == 0 {
			continue
		}
		delta := m.M[i] - sed[i] - E*ext.A(RV, i) - mu
		chi2 += delta * delta * ivar
	}
	return chi2
}
