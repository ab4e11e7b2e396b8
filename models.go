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

	"gonum.org/v1/gonum/floats"
)

// SED holds the absolute magnitude of a stellar type in each passband.
type SED [NBands]float64

// StellarModel is a library of stellar types on a regular
// (M_r, [Fe/H]) grid.
type StellarModel interface {
	// NMr and NFeH return the number of grid points along the absolute
	// magnitude and metallicity axes.
	NMr() int
	NFeH() int

	// SED returns the spectral energy distribution at grid point
	// (iMr, iFeH) along with the point's absolute magnitude and
	// metallicity. ok is false if the library has no entry there.
	SED(iMr, iFeH int) (sed SED, Mr, FeH float64, ok bool)

	// LogLF returns the log of the luminosity function at Mr.
	LogLF(Mr float64) float64
}

// LOSModel is a Galactic model of the stellar distribution along one
// line of sight.
type LOSModel interface {
	// LogPrior returns the log prior density of a star with distance
	// modulus mu, absolute magnitude Mr and metallicity FeH.
	LogPrior(mu, Mr, FeH float64) float64
}

// ExtinctionModel gives the extinction in each passband per unit
// reddening.
type ExtinctionModel interface {
	A(RV float64, band int) float64
}

// TableStellarModel is a StellarModel held in memory.
type TableStellarModel struct {
	Mr, FeH []float64 // grid coordinates

	seds    []SED
	present []bool

	// Tabulated luminosity function; LFMr must be increasing.
	LFMr, LFLogPhi []float64
}

// NewTableStellarModel returns an empty library on the given grid.
func NewTableStellarModel(Mr, FeH []float64) *TableStellarModel {
	n := len(Mr) * len(FeH)
	return &TableStellarModel{
		Mr:      Mr,
		FeH:     FeH,
		seds:    make([]SED, n),
		present: make([]bool, n),
	}
}

// Add stores sed at grid point (iMr, iFeH).
func (t *TableStellarModel) Add(iMr, iFeH int, sed SED) error {
	if iMr < 0 || iMr >= len(t.Mr) || iFeH < 0 || iFeH >= len(t.FeH) {
		return fmt.Errorf("starpdf: SED index (%d, %d) outside of (%d, %d) library grid",
			iMr, iFeH, len(t.Mr), len(t.FeH))
	}
	i := iMr*len(t.FeH) + iFeH
	t.seds[i] = sed
	t.present[i] = true
	return nil
}

// NMr implements StellarModel.
func (t *TableStellarModel) NMr() int { return len(t.Mr) }

// NFeH implements StellarModel.
func (t *TableStellarModel) NFeH() int { return len(t.FeH) }

// SED implements StellarModel.
func (t *TableStellarModel) SED(iMr, iFeH int) (SED, float64, float64, bool) {
	if iMr < 0 || iMr >= len(t.Mr) || iFeH < 0 || iFeH >= len(t.FeH) {
		return SED{}, 0, 0, false
	}
	i := iMr*len(t.FeH) + iFeH
	if !t.present[i] {
		return SED{}, t.Mr[iMr], t.FeH[iFeH], false
	}
	return t.seds[i], t.Mr[iMr], t.FeH[iFeH], true
}

// LogLF implements StellarModel by linear interpolation in the tabulated
// luminosity function. Values outside of the table are clamped to the
// end points; an empty table gives a flat luminosity function.
func (t *TableStellarModel) LogLF(Mr float64) float64 {
	n := len(t.LFMr)
	switch {
	case n == 0:
		return 0
	case Mr <= t.LFMr[0]:
		return t.LFLogPhi[0]
	case Mr >= t.LFMr[n-1]:
		return t.LFLogPhi[n-1]
	}
	i := floats.Within(t.LFMr, Mr)
	if i < 0 {
		return t.LFLogPhi[n-1]
	}
	a := (Mr - t.LFMr[i]) / (t.LFMr[i+1] - t.LFMr[i])
	return (1-a)*t.LFLogPhi[i] + a*t.LFLogPhi[i+1]
}

// TableExtinction is an ExtinctionModel with per-band coefficients
// tabulated at a reference R_V and varying linearly away from it.
type TableExtinction struct {
	RV0   float64
	A0    [NBands]float64 // A_i / E at RV0
	DADRV [NBands]float64 // d(A_i/E)/dR_V
}

// A implements ExtinctionModel.
func (e *TableExtinction) A(RV float64, band int) float64 {
	return e.A0[band] + e.DADRV[band]*(RV-e.RV0)
}

// FlatLOSModel is a LOSModel with a uniform prior.
type FlatLOSModel struct{}

// LogPrior implements LOSModel.
func (FlatLOSModel) LogPrior(mu, Mr, FeH float64) float64 { return 0 }

// DiskLOSModel is a LOSModel with stars in an exponential disk and a
// Gaussian metallicity distribution.
type DiskLOSModel struct {
	L, B float64 // line of sight [deg]

	R0, Z0         float64 // Solar position [pc]
	HThin, LThin   float64 // disk scale height and length [pc]
	FeHMean, FeHSD float64

	cosL, sinL, cosB, sinB float64
}

// NewDiskLOSModel returns a disk model with standard Galactic parameters
// along the line of sight (l, b), given in degrees.
func NewDiskLOSModel(l, b float64) *DiskLOSModel {
	d := &DiskLOSModel{
		L: l, B: b,
		R0: 8000, Z0: 25,
		HThin: 245, LThin: 2150,
		FeHMean: -0.6, FeHSD: 0.3,
	}
	d.init()
	return d
}

func (d *DiskLOSModel) init() {
	const deg = math.Pi / 180
	d.cosL, d.sinL = math.Cos(d.L*deg), math.Sin(d.L*deg)
	d.cosB, d.sinB = math.Cos(d.B*deg), math.Sin(d.B*deg)
}

// LogPrior implements LOSModel. It includes the volume element
// d³ ∝ 10^(3μ/5).
func (d *DiskLOSModel) LogPrior(mu, Mr, FeH float64) float64 {
	dist := math.Pow(10, mu/5+1)
	x := d.R0 - dist*d.cosL*d.cosB
	y := -dist * d.sinL * d.cosB
	z := d.Z0 + dist*d.sinB
	r := math.Hypot(x, y)

	logp := 0.6 * math.Ln10 * mu
	logp += -(r-d.R0)/d.LThin - math.Abs(z)/d.HThin
	if d.FeHSD > 0 {
		dz := (FeH - d.FeHMean) / d.FeHSD
		logp -= 0.5 * dz * dz
	}
	return logp
}
