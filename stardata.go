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

// lnSqrt2Pi is ln(√(2π)).
const lnSqrt2Pi = 0.9189385332

// Magnitudes holds the photometry of a single star.
type Magnitudes struct {
	ObjID uint64
	L, B  float64 // Galactic longitude and latitude [deg]

	Pi, PiErr float64 // parallax and its uncertainty [arcsec]

	M           [NBands]float64 // apparent magnitudes
	Err         [NBands]float64 // magnitude uncertainties; >= MissingErr if missing
	MagLimit    [NBands]float64 // limiting magnitudes
	MagLimWidth [NBands]float64 // width of the detection-probability roll-off
	NDet        [NBands]int     // number of detections

	EBV     float64 // reddening estimate
	LnLNorm float64 // log normalization of the Gaussian likelihood
}

// NewMagnitudes returns photometry with the given magnitudes and
// uncertainties and default magnitude limits.
func NewMagnitudes(m, err [NBands]float64) *Magnitudes {
	o := &Magnitudes{M: m, Err: err, EBV: 1}
	for i := 0; i < NBands; i++ {
		o.MagLimit[i] = 23
		o.MagLimWidth[i] = 0.2
		o.NDet[i] = 1
	}
	o.setNorm()
	return o
}

// RawMagnitudes holds photometry as it is stored on disk.
type RawMagnitudes struct {
	ObjID     uint64
	L, B      float64
	Pi, PiErr float64
	Mag       [NBands]float32
	Err       [NBands]float32
	MagLimit  [NBands]float32
	NDet      [NBands]uint32
	EBV       float32
}

// Set fills in m from raw, adding errFloor in quadrature to each
// uncertainty. Bands with no detections, or a non-finite or sentinel
// uncertainty, are marked missing.
func (m *Magnitudes) Set(raw *RawMagnitudes, errFloor float64) {
	m.ObjID = raw.ObjID
	m.L, m.B = raw.L, raw.B
	m.Pi, m.PiErr = raw.Pi, raw.PiErr
	m.EBV = float64(raw.EBV)
	for i := 0; i < NBands; i++ {
		m.M[i] = float64(raw.Mag[i])
		e := float64(raw.Err[i])
		m.NDet[i] = int(raw.NDet[i])
		if raw.NDet[i] == 0 || math.IsNaN(e) || math.IsInf(e, 0) || e >= MissingErr {
			m.Err[i] = 10 * MissingErr
			m.M[i] = 0
		} else {
			m.Err[i] = math.Sqrt(e*e + errFloor*errFloor)
		}
		m.MagLimit[i] = float64(raw.MagLimit[i])
		if m.MagLimit[i] <= 0 || math.IsNaN(m.MagLimit[i]) {
			m.MagLimit[i] = 23
		}
		m.MagLimWidth[i] = 0.2
	}
	m.setNorm()
}

func (m *Magnitudes) setNorm() {
	m.LnLNorm = 0
	for i := 0; i < NBands; i++ {
		if !m.Missing(i) {
			m.LnLNorm += lnSqrt2Pi + math.Log(m.Err[i])
		}
	}
}

// Missing reports whether band i carries no usable measurement.
func (m *Magnitudes) Missing(i int) bool {
	e := m.Err[i]
	return math.IsNaN(e) || math.IsInf(e, 0) || e >= MissingErr
}

// ivar returns the inverse variance of band i, which is zero for
// missing bands.
func (m *Magnitudes) ivar(i int) float64 {
	if m.Missing(i) {
		return 0
	}
	return 1 / (m.Err[i] * m.Err[i])
}

// NPassbands returns the number of non-missing bands.
func (m *Magnitudes) NPassbands() int {
	var n int
	for i := 0; i < NBands; i++ {
		if !m.Missing(i) {
			n++
		}
	}
	return n
}

// Pixel holds the stars observed in one HEALPix pixel.
type Pixel struct {
	Name   string // group name used when saving results
	Index  uint64 // HEALPix index
	Nside  uint32 // HEALPix resolution
	Nested bool
	L, B   float64 // pixel center [deg]
	EBV    float64

	Stars []Magnitudes
}
