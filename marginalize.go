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

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Marginalizer evaluates the (E, μ) surface of individual stars.
type Marginalizer struct {
	Stellar    StellarModel
	LOS        LOSModel // only used if UsePriors is true
	Extinction ExtinctionModel

	// UsePriors specifies whether the Galactic prior and the luminosity
	// function weight each stellar type.
	UsePriors bool

	// UseParallax specifies whether stars' parallaxes weight each
	// stellar type.
	UseParallax bool

	RV     float64 // extinction law slope
	Kernel KernelConfig

	Log logrus.FieldLogger
}

// Check returns an error if m is missing a required model.
func (m *Marginalizer) Check() error {
	if m.Stellar == nil {
		return fmt.Errorf("starpdf: no stellar model specified")
	}
	if m.Extinction == nil {
		return fmt.Errorf("starpdf: no extinction model specified")
	}
	if m.UsePriors && m.LOS == nil {
		return fmt.Errorf("starpdf: Galactic priors requested but no line-of-sight model specified")
	}
	return nil
}

func (m *Marginalizer) logger() logrus.FieldLogger {
	if m.Log == nil {
		return logrus.StandardLogger()
	}
	return m.Log
}

// logPrior returns the log prior weight of a star of type (Mr, FeH) at
// distance modulus mu.
func (m *Marginalizer) logPrior(star *Magnitudes, mu, Mr, FeH float64) float64 {
	var prior float64
	if m.UsePriors {
		prior += m.LOS.LogPrior(mu, Mr, FeH) + m.Stellar.LogLF(Mr)
	}
	if m.UseParallax && star.PiErr > 0 && !math.IsInf(star.PiErr, 0) {
		piMu := math.Pow(10, -(mu+5)/5)
		d := star.Pi - piMu
		prior += -0.5 * d * d / (star.PiErr * star.PiErr)
	}
	return prior
}

// Sample deposits, onto a zeroed surface on rect, one point mass per
// stellar type at that type's maximum-likelihood (E, μ), weighted by
// the likelihood and prior of the fit. It returns the surface and the
// minimum chi-square over all stellar types.
//
// The weights are calculated in log space relative to the minimum
// chi-square and the maximum prior, so all of the fits must be performed
// before any mass is deposited.
func (m *Marginalizer) Sample(star *Magnitudes, rect *Rect) (*sparse.DenseArray, float64, error) {
	return m.sample(star, StarCovariance(star, m.Extinction, m.RV), rect)
}

// sample implements Sample for a star with inverse covariance ic.
func (m *Marginalizer) sample(star *Magnitudes, ic InvCov, rect *Rect) (*sparse.DenseArray, float64, error) {
	nMr, nFeH := m.Stellar.NMr(), m.Stellar.NFeH()
	n := nMr * nFeH
	E := make([]float64, 0, n)
	mu := make([]float64, 0, n)
	chi2 := make([]float64, 0, n)
	prior := make([]float64, 0, n)

	for iMr := 0; iMr < nMr; iMr++ {
		for iFeH := 0; iFeH < nFeH; iFeH++ {
			sed, Mr, FeH, ok := m.Stellar.SED(iMr, iFeH)
			if !ok {
				m.logger().WithFields(logrus.Fields{"Mr_idx": iMr, "FeH_idx": iFeH}).Debug("SED not in library")
				continue
			}
			muML, EML, chi2ML := StarMaxLikelihood(&sed, star, m.Extinction, ic, m.RV)
			E = append(E, EML)
			mu = append(mu, muML)
			chi2 = append(chi2, chi2ML)
			prior = append(prior, m.logPrior(star, muML, Mr, FeH))
		}
	}
	if len(chi2) == 0 {
		return nil, math.NaN(), fmt.Errorf("starpdf: none of the %d×%d library SEDs are available", nMr, nFeH)
	}

	priorMax := floats.Max(prior)
	chi2Min := floats.Min(chi2)
	m.logger().WithFields(logrus.Fields{"prior_max": priorMax, "chi2_min": chi2Min}).Debug("sampled stellar types")

	img := sparse.ZerosDense(rect.NBins[0], rect.NBins[1])
	n1 := rect.NBins[1]
	for k := range chi2 {
		i0, i1, a0, a1, inBounds := rect.Interpolant(E[k], mu[k])
		if !inBounds {
			continue
		}
		p := math.Exp(-0.5*(chi2[k]-chi2Min) + prior[k] - priorMax)
		if !(p > 0) || math.IsInf(p, 0) {
			continue
		}
		img.Elements[i0*n1+i1] += (1 - a0) * (1 - a1) * p
		img.Elements[(i0+1)*n1+i1] += a0 * (1 - a1) * p
		img.Elements[i0*n1+i1+1] += (1 - a0) * a1 * p
		img.Elements[(i0+1)*n1+i1+1] += a0 * a1 * p
	}
	return img, chi2Min, nil
}

// IntegrateMLSolution calculates the (E, μ) surface of star and stores it
// as surface imgIdx of stack. The point masses from Sample are smoothed
// with a kernel derived from the uncertainty of the star's
// maximum-likelihood fit. It returns the minimum chi-square per
// non-missing passband.
func (m *Marginalizer) IntegrateMLSolution(star *Magnitudes, stack *ImgStack, imgIdx int) (float64, error) {
	nPassbands := star.NPassbands()
	if nPassbands == 0 {
		return math.NaN(), ErrNoBands
	}
	if nPassbands < 2 {
		m.logger().WithFields(logrus.Fields{
			"object":    star.ObjID,
			"passbands": nPassbands,
		}).Warn("distance and reddening are degenerate with fewer than 2 passbands")
	}
	stack.InitializeToZero(imgIdx)

	ic := StarCovariance(star, m.Extinction, m.RV)
	img, chi2Min, err := m.sample(star, ic, stack.Rect)
	if err != nil {
		return math.NaN(), err
	}

	// Axis 0 of the surface is E, so the (μ, E) inverse covariance is
	// transposed.
	kernel := GaussianKernel(ic.Transpose(), stack.Rect, m.Kernel)
	stack.Img[imgIdx] = Filter2D(img, kernel)

	m.logger().WithFields(logrus.Fields{
		"passbands":         nPassbands,
		"chi2_per_passband": chi2Min / float64(nPassbands),
	}).Debug("integrated ML solution")
	return chi2Min / float64(nPassbands), nil
}
