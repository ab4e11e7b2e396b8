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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// SurfaceWriter saves the surfaces of the stars in a pixel. surfs are
// all on grid rect, in the order of the pixel's stars.
type SurfaceWriter interface {
	WriteSurfaces(pixName string, rect *Rect, surfs []*sparse.DenseArray, attrs map[string]string) error
}

var _ SurfaceWriter = (*CDFWriter)(nil)

// SurfaceVar is the name of the netCDF variable holding the stellar
// surfaces.
const SurfaceVar = "stellar_pdfs"

// CDFWriter saves the surfaces of each pixel to a netCDF file named
// after the pixel in directory Dir.
type CDFWriter struct {
	Dir string
}

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")

// Path returns the location of the file for pixel pixName.
func (w *CDFWriter) Path(pixName string) string {
	return filepath.Join(w.Dir, fileNameReplacer.Replace(pixName)+".nc")
}

// WriteSurfaces writes surfs, which must all be on rect, to the file
// for pixel pixName. attrs are added as global attributes.
// No file is created if surfs is empty.
func (w *CDFWriter) WriteSurfaces(pixName string, rect *Rect, surfs []*sparse.DenseArray, attrs map[string]string) error {
	if len(surfs) == 0 {
		return nil
	}
	for i, s := range surfs {
		if s.Shape[0] != rect.NBins[0] || s.Shape[1] != rect.NBins[1] {
			return fmt.Errorf("starpdf: surface %d has shape %v but grid has %v bins", i, s.Shape, rect.NBins)
		}
	}

	h := cdf.NewHeader([]string{"star", "E", "DM"},
		[]int{len(surfs), rect.NBins[0], rect.NBins[1]})
	h.AddAttribute("", "pixel", pixName)
	h.AddAttribute("", "E_min", []float64{rect.Min[0]})
	h.AddAttribute("", "E_max", []float64{rect.Max[0]})
	h.AddAttribute("", "DM_min", []float64{rect.Min[1]})
	h.AddAttribute("", "DM_max", []float64{rect.Max[1]})

	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		h.AddAttribute("", k, attrs[k])
	}

	h.AddVariable("E", []string{"E"}, []float64{0})
	h.AddAttribute("E", "description", "reddening bin centers")
	h.AddAttribute("E", "units", "mag")
	h.AddVariable("DM", []string{"DM"}, []float64{0})
	h.AddAttribute("DM", "description", "distance modulus bin centers")
	h.AddAttribute("DM", "units", "mag")
	h.AddVariable(SurfaceVar, []string{"star", "E", "DM"}, []float32{0})
	h.AddAttribute(SurfaceVar, "description", "stellar pdfs")
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("starpdf: creating netcdf header: %v", err)
	}

	if err := os.MkdirAll(w.Dir, os.ModePerm); err != nil {
		return fmt.Errorf("starpdf: creating output directory: %v", err)
	}
	ff, err := os.Create(w.Path(pixName))
	if err != nil {
		return fmt.Errorf("starpdf: creating netcdf file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("starpdf: creating netcdf file: %v", err)
	}

	centers := [2][]float64{make([]float64, rect.NBins[0]), make([]float64, rect.NBins[1])}
	for i := range centers[0] {
		centers[0][i], _ = rect.Center(i, 0)
	}
	for j := range centers[1] {
		_, centers[1][j] = rect.Center(0, j)
	}
	for i, v := range []string{"E", "DM"} {
		if _, err = f.Writer(v, []int{0}, []int{len(centers[i])}).Write(centers[i]); err != nil {
			ff.Close()
			return fmt.Errorf("starpdf: writing variable %s: %v", v, err)
		}
	}

	n := rect.NBins[0] * rect.NBins[1]
	data32 := make([]float32, len(surfs)*n)
	for k, s := range surfs {
		for i, e := range s.Elements {
			data32[k*n+i] = float32(e)
		}
	}
	end := f.Header.Lengths(SurfaceVar)
	start := make([]int, len(end))
	if _, err = f.Writer(SurfaceVar, start, end).Write(data32); err != nil {
		ff.Close()
		return fmt.Errorf("starpdf: writing variable %s: %v", SurfaceVar, err)
	}
	if err = cdf.UpdateNumRecs(ff); err != nil {
		ff.Close()
		return fmt.Errorf("starpdf: finalizing netcdf file: %v", err)
	}
	return ff.Close()
}

// ReadSurfaces reads surfaces written by CDFWriter. It returns the name
// of the pixel, the grid, and the surfaces.
func ReadSurfaces(rw cdf.ReaderWriterAt) (pixName string, rect *Rect, surfs []*sparse.DenseArray, err error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return "", nil, nil, fmt.Errorf("starpdf: opening netcdf file: %v", err)
	}
	attrFloat := func(name string) (float64, error) {
		v, ok := f.Header.GetAttribute("", name).([]float64)
		if !ok || len(v) != 1 {
			return 0, fmt.Errorf("starpdf: netcdf file is missing attribute %s", name)
		}
		return v[0], nil
	}
	var min, max [2]float64
	for i, a := range []string{"E", "DM"} {
		if min[i], err = attrFloat(a + "_min"); err != nil {
			return "", nil, nil, err
		}
		if max[i], err = attrFloat(a + "_max"); err != nil {
			return "", nil, nil, err
		}
	}
	pixName, _ = f.Header.GetAttribute("", "pixel").(string)

	dims := f.Header.Lengths(SurfaceVar)
	if len(dims) != 3 {
		return "", nil, nil, fmt.Errorf("starpdf: variable %s has %d dimensions; want 3", SurfaceVar, len(dims))
	}
	rect, err = NewRect(min, max, [2]int{dims[1], dims[2]})
	if err != nil {
		return "", nil, nil, err
	}

	r := f.Reader(SurfaceVar, nil, nil)
	buf := r.Zero(-1)
	if _, err = r.Read(buf); err != nil {
		return "", nil, nil, fmt.Errorf("starpdf: reading variable %s: %v", SurfaceVar, err)
	}
	data32 := buf.([]float32)
	n := dims[1] * dims[2]
	if len(data32) != dims[0]*n {
		return "", nil, nil, fmt.Errorf("starpdf: dims are %v but array length is %d", dims, len(data32))
	}
	surfs = make([]*sparse.DenseArray, dims[0])
	for k := range surfs {
		s := sparse.ZerosDense(dims[1], dims[2])
		for i, v := range data32[k*n : (k+1)*n] {
			s.Elements[i] = float64(v)
		}
		surfs[k] = s
	}
	return pixName, rect, surfs, nil
}
