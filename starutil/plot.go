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

package starutil

import (
	"fmt"
	"io"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/starpdf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// surfaceGrid adapts a surface to plotter.GridXYZ, with distance modulus
// on the x axis and reddening on the y axis.
type surfaceGrid struct {
	rect *starpdf.Rect
	s    *sparse.DenseArray
}

func (g surfaceGrid) Dims() (c, r int) { return g.rect.NBins[1], g.rect.NBins[0] }

func (g surfaceGrid) Z(c, r int) float64 { return g.s.Elements[r*g.rect.NBins[1]+c] }

func (g surfaceGrid) X(c int) float64 {
	_, x := g.rect.Center(0, c)
	return x
}

func (g surfaceGrid) Y(r int) float64 {
	y, _ := g.rect.Center(r, 0)
	return y
}

// PlotSurface draws surface s, on grid rect, as a PNG heat map to w.
func PlotSurface(w io.Writer, title string, rect *starpdf.Rect, s *sparse.DenseArray) error {
	max := floats.Max(s.Elements)
	if !(max > 0) {
		return fmt.Errorf("starpdf: cannot plot %s: surface is empty", title)
	}

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("starpdf: plotting %s: %v", title, err)
	}
	p.Title.Text = title
	p.X.Label.Text = "distance modulus"
	p.Y.Label.Text = "E(B-V)"

	cm := moreland.ExtendedBlackBody()
	cm.SetMin(0)
	cm.SetMax(max)
	h := plotter.NewHeatMap(surfaceGrid{rect: rect, s: s}, cm.Palette(255))
	h.Min, h.Max = 0, max
	p.Add(h)

	img := vgimg.New(500, 400)
	p.Draw(draw.New(img))
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("starpdf: writing plot of %s: %v", title, err)
	}
	return nil
}
