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

// Package starpdf calculates, for each star in a photometric survey pixel,
// the posterior probability density of the star's reddening E and
// distance modulus μ. The density is obtained by fitting (μ, E) in closed
// form for every stellar type in a library of spectral energy
// distributions, weighting each fit by its likelihood and an optional
// Galactic prior, and smoothing the resulting point masses with the
// uncertainty of the fit.
package starpdf

import "errors"

// Version gives the version number.
const Version = "0.3.0"

// NBands is the number of photometric passbands (g, r, i, z, y).
const NBands = 5

// MissingErr is the photometric error at and above which a band is
// considered to be missing.
const MissingErr = 1.e9

// DetRegularization is added to the determinant of inverse covariance
// matrices before they are inverted.
const DetRegularization = 1.e-5

// ErrNoBands is returned when a star has no usable photometry.
var ErrNoBands = errors.New("starpdf: star has no non-missing passbands")
