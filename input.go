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
	"io"

	"github.com/BurntSushi/toml"
)

// Model holds the stellar, extinction and Galactic models read from a
// model file.
type Model struct {
	Stellar    *TableStellarModel
	Extinction *TableExtinction

	// disk holds the Galactic disk parameters, or nil if the prior is
	// flat.
	disk *DiskLOSModel
}

// LOS returns the line-of-sight model toward Galactic coordinates (l, b).
func (m *Model) LOS(l, b float64) LOSModel {
	if m.disk == nil {
		return FlatLOSModel{}
	}
	d := *m.disk
	d.L, d.B = l, b
	d.init()
	return &d
}

type modelFile struct {
	Library struct {
		Mr, FeH []float64
		SED     []struct {
			IMr, IFeH int
			M         []float64
		}
	}
	LF struct {
		Mr, LogPhi []float64
	}
	Extinction struct {
		RV0       float64
		A0, DADRV []float64
	}
	Disk *struct {
		R0, Z0         float64
		HThin, LThin   float64
		FeHMean, FeHSD float64
	}
}

func bandArray(name string, v []float64) ([NBands]float64, error) {
	var o [NBands]float64
	if len(v) != NBands {
		return o, fmt.Errorf("%s has %d values; want one per passband (%d)", name, len(v), NBands)
	}
	copy(o[:], v)
	return o, nil
}

// ReadModel reads a model file in TOML format from r.
func ReadModel(r io.Reader) (*Model, error) {
	var f modelFile
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("starpdf: reading model file: %v", err)
	}
	if len(f.Library.Mr) == 0 || len(f.Library.FeH) == 0 {
		return nil, fmt.Errorf("starpdf: model file: stellar library grid is empty")
	}
	if len(f.LF.Mr) != len(f.LF.LogPhi) {
		return nil, fmt.Errorf("starpdf: model file: luminosity function has %d magnitudes and %d values",
			len(f.LF.Mr), len(f.LF.LogPhi))
	}
	for i := 1; i < len(f.LF.Mr); i++ {
		if f.LF.Mr[i] <= f.LF.Mr[i-1] {
			return nil, fmt.Errorf("starpdf: model file: luminosity function magnitudes must be increasing")
		}
	}

	m := &Model{Stellar: NewTableStellarModel(f.Library.Mr, f.Library.FeH)}
	m.Stellar.LFMr, m.Stellar.LFLogPhi = f.LF.Mr, f.LF.LogPhi
	for i, s := range f.Library.SED {
		sed, err := bandArray(fmt.Sprintf("SED %d", i), s.M)
		if err != nil {
			return nil, fmt.Errorf("starpdf: model file: %v", err)
		}
		if err = m.Stellar.Add(s.IMr, s.IFeH, SED(sed)); err != nil {
			return nil, err
		}
	}

	m.Extinction = &TableExtinction{RV0: f.Extinction.RV0}
	var err error
	if m.Extinction.A0, err = bandArray("Extinction.A0", f.Extinction.A0); err != nil {
		return nil, fmt.Errorf("starpdf: model file: %v", err)
	}
	if f.Extinction.DADRV != nil {
		if m.Extinction.DADRV, err = bandArray("Extinction.DADRV", f.Extinction.DADRV); err != nil {
			return nil, fmt.Errorf("starpdf: model file: %v", err)
		}
	}

	if d := f.Disk; d != nil {
		m.disk = &DiskLOSModel{
			R0: d.R0, Z0: d.Z0,
			HThin: d.HThin, LThin: d.LThin,
			FeHMean: d.FeHMean, FeHSD: d.FeHSD,
		}
	}
	return m, nil
}

type pixelFile struct {
	Name   string
	Index  uint64
	Nside  uint32
	Nested bool
	L, B   float64
	EBV    float64
	Stars  []struct {
		ObjID              uint64
		L, B               float64
		Pi, PiErr          float64
		Mag, Err, MagLimit []float64
		NDet               []int
		EBV                float64
	}
}

// ReadPixel reads the photometry of the stars in one pixel, in TOML
// format, from r. errFloor is added in quadrature to every magnitude
// uncertainty. Stars without NDet are assumed to be detected once in
// every passband, and stars without MagLimit get the default limits.
func ReadPixel(r io.Reader, errFloor float64) (*Pixel, error) {
	var f pixelFile
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("starpdf: reading pixel file: %v", err)
	}
	p := &Pixel{
		Name:   f.Name,
		Index:  f.Index,
		Nside:  f.Nside,
		Nested: f.Nested,
		L:      f.L,
		B:      f.B,
		EBV:    f.EBV,
		Stars:  make([]Magnitudes, len(f.Stars)),
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("pixel %d-%d", p.Nside, p.Index)
	}
	for i, s := range f.Stars {
		mag, err := bandArray("Mag", s.Mag)
		if err != nil {
			return nil, fmt.Errorf("starpdf: pixel file: star %d: %v", i, err)
		}
		magErr, err := bandArray("Err", s.Err)
		if err != nil {
			return nil, fmt.Errorf("starpdf: pixel file: star %d: %v", i, err)
		}
		raw := &RawMagnitudes{
			ObjID: s.ObjID,
			L:     s.L,
			B:     s.B,
			Pi:    s.Pi,
			PiErr: s.PiErr,
			EBV:   float32(s.EBV),
		}
		for j := 0; j < NBands; j++ {
			raw.Mag[j] = float32(mag[j])
			raw.Err[j] = float32(magErr[j])
			raw.MagLimit[j] = 23
			raw.NDet[j] = 1
		}
		if s.MagLimit != nil {
			lim, err := bandArray("MagLimit", s.MagLimit)
			if err != nil {
				return nil, fmt.Errorf("starpdf: pixel file: star %d: %v", i, err)
			}
			for j, v := range lim {
				raw.MagLimit[j] = float32(v)
			}
		}
		if s.NDet != nil {
			if len(s.NDet) != NBands {
				return nil, fmt.Errorf("starpdf: pixel file: star %d: NDet has %d values; want %d", i, len(s.NDet), NBands)
			}
			for j, v := range s.NDet {
				if v < 0 {
					v = 0
				}
				raw.NDet[j] = uint32(v)
			}
		}
		p.Stars[i].Set(raw, errFloor)
	}
	return p, nil
}
