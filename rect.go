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
)

// Rect is a regular two-dimensional grid. Axis 0 is reddening E and
// axis 1 is distance modulus μ.
type Rect struct {
	Min, Max [2]float64
	NBins    [2]int
	Dx       [2]float64 // bin widths
}

// GridConfig holds the extent and resolution of the (E, μ) grid.
type GridConfig struct {
	EMin, EMax   float64
	MuMin, MuMax float64
	NE, NMu      int
}

// DefaultGrid is the grid stellar surfaces are evaluated on before
// cropping.
var DefaultGrid = GridConfig{
	EMin: -0.2, EMax: 7.2, NE: 740,
	MuMin: 3.75, MuMax: 19.25, NMu: 124,
}

// NewRect returns a grid spanning [min, max) with nBins bins along each
// axis.
func NewRect(min, max [2]float64, nBins [2]int) (*Rect, error) {
	r := &Rect{Min: min, Max: max, NBins: nBins}
	for i := 0; i < 2; i++ {
		if math.IsNaN(min[i]) || math.IsNaN(max[i]) || math.IsInf(min[i], 0) || math.IsInf(max[i], 0) {
			return nil, fmt.Errorf("starpdf: grid axis %d has non-finite bounds [%g, %g]", i, min[i], max[i])
		}
		if max[i] <= min[i] {
			return nil, fmt.Errorf("starpdf: grid axis %d maximum %g is not greater than minimum %g", i, max[i], min[i])
		}
		if nBins[i] < 2 {
			return nil, fmt.Errorf("starpdf: grid axis %d has %d bins; at least 2 are required", i, nBins[i])
		}
		r.Dx[i] = (max[i] - min[i]) / float64(nBins[i])
	}
	return r, nil
}

// Rect returns the grid described by c.
func (c GridConfig) Rect() (*Rect, error) {
	return NewRect([2]float64{c.EMin, c.MuMin}, [2]float64{c.EMax, c.MuMax}, [2]int{c.NE, c.NMu})
}

// Index returns the bin containing (x0, x1) and whether the point is
// inside the grid.
func (r *Rect) Index(x0, x1 float64) (i0, i1 int, ok bool) {
	f0 := (x0 - r.Min[0]) / r.Dx[0]
	f1 := (x1 - r.Min[1]) / r.Dx[1]
	if f0 < 0 || f1 < 0 || f0 >= float64(r.NBins[0]) || f1 >= float64(r.NBins[1]) {
		return 0, 0, false
	}
	return int(f0), int(f1), true
}

// Interpolant returns the lower of the two bins along each axis that
// bracket (x0, x1), measured between bin centers, along with the
// fractional distance a0, a1 of the point from those bins' centers. ok
// is false unless all four bracketing bins are inside the grid, so points
// within half a bin of the grid edge are dropped.
func (r *Rect) Interpolant(x0, x1 float64) (i0, i1 int, a0, a1 float64, ok bool) {
	f0 := (x0-r.Min[0])/r.Dx[0] - 0.5
	f1 := (x1-r.Min[1])/r.Dx[1] - 0.5
	if math.IsNaN(f0) || math.IsNaN(f1) || f0 < 0 || f1 < 0 {
		return 0, 0, 0, 0, false
	}
	if f0 >= float64(r.NBins[0]-1) || f1 >= float64(r.NBins[1]-1) {
		return 0, 0, 0, 0, false
	}
	fl0, fl1 := math.Floor(f0), math.Floor(f1)
	return int(fl0), int(fl1), f0 - fl0, f1 - fl1, true
}

// Center returns the coordinates of the center of bin (i0, i1).
func (r *Rect) Center(i0, i1 int) (x0, x1 float64) {
	return r.Min[0] + (float64(i0)+0.5)*r.Dx[0], r.Min[1] + (float64(i1)+0.5)*r.Dx[1]
}

// Crop returns the sub-grid covering [min, max) along each axis, snapped
// to the bin edges of r and clipped to r's extent, along with the index
// of its first bin in r.
func (r *Rect) Crop(min, max [2]float64) (*Rect, [2]int, error) {
	var start [2]int
	var nBins [2]int
	var newMin, newMax [2]float64
	for i := 0; i < 2; i++ {
		lo := int(math.Floor((min[i]-r.Min[i])/r.Dx[i] + 0.5))
		hi := int(math.Floor((max[i]-r.Min[i])/r.Dx[i] + 0.5))
		if lo < 0 {
			lo = 0
		}
		if hi > r.NBins[i] {
			hi = r.NBins[i]
		}
		if hi-lo < 2 {
			return nil, start, fmt.Errorf("starpdf: crop [%g, %g) leaves fewer than 2 bins along axis %d", min[i], max[i], i)
		}
		start[i] = lo
		nBins[i] = hi - lo
		newMin[i] = r.Min[i] + float64(lo)*r.Dx[i]
		newMax[i] = r.Min[i] + float64(hi)*r.Dx[i]
	}
	o := &Rect{Min: newMin, Max: newMax, NBins: nBins, Dx: r.Dx}
	return o, start, nil
}
