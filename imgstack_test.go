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
	"math"
	"testing"
)

func TestImgStackCrop(t *testing.T) {
	r := testRect(t, [2]float64{0, 0}, [2]float64{10, 10}, [2]int{10, 10})
	s := NewImgStack(2, r)
	for k, img := range s.Img {
		for i := 0; i < 10; i++ {
			for j := 0; j < 10; j++ {
				img.Set(float64(k*1000+i*10+j), i, j)
			}
		}
	}
	if err := s.Crop([2]float64{2, 3}, [2]float64{5, 9}); err != nil {
		t.Fatal(err)
	}
	if s.Rect.NBins != [2]int{3, 6} {
		t.Fatalf("bins: %v", s.Rect.NBins)
	}
	for k, img := range s.Img {
		if img.Shape[0] != 3 || img.Shape[1] != 6 {
			t.Fatalf("shape: %v", img.Shape)
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 6; j++ {
				want := float64(k*1000 + (i+2)*10 + j + 3)
				if v := img.Get(i, j); v != want {
					t.Errorf("surface %d (%d, %d): have %g, want %g", k, i, j, v, want)
				}
			}
		}
	}
}

func TestImgStackSmooth(t *testing.T) {
	r := testRect(t, [2]float64{0, 0}, [2]float64{21, 3}, [2]int{21, 3})

	t.Run("disabled", func(t *testing.T) {
		s := NewImgStack(1, r)
		for i := range s.Img[0].Elements {
			s.Img[0].Elements[i] = float64(i)
		}
		want := s.Img[0].Copy()
		if err := s.Smooth(make([]float64, 21), 5); err != nil {
			t.Fatal(err)
		}
		arrayCompare(s.Img[0], want, 0, "disabled", t)
	})

	t.Run("uniform", func(t *testing.T) {
		s := NewImgStack(3, r)
		sigma := make([]float64, 21)
		for k, img := range s.Img {
			for i := range img.Elements {
				img.Elements[i] = float64(k + 1)
			}
		}
		for i := range sigma {
			sigma[i] = 0.3 * float64(i)
		}
		if err := s.Smooth(sigma, 5); err != nil {
			t.Fatal(err)
		}
		for k, img := range s.Img {
			for i, v := range img.Elements {
				if different(v, float64(k+1), 1e-12) {
					t.Errorf("surface %d element %d: %g", k, i, v)
				}
			}
		}
	})

	t.Run("mass", func(t *testing.T) {
		s := NewImgStack(1, r)
		s.Img[0].Set(1, 10, 1)
		sigma := make([]float64, 21)
		for i := range sigma {
			sigma[i] = 1
		}
		if err := s.Smooth(sigma, 5); err != nil {
			t.Fatal(err)
		}
		if different(s.Img[0].Sum(), 1, 1e-12) {
			t.Errorf("sum: %g", s.Img[0].Sum())
		}
		if different(s.Img[0].Get(10, 1), 1/math.Sqrt(2*math.Pi), 1e-6) {
			t.Errorf("peak: %g", s.Img[0].Get(10, 1))
		}
		if s.Img[0].Get(10, 0) != 0 || s.Img[0].Get(10, 2) != 0 {
			t.Error("smoothing spread across columns")
		}
		if s.Img[0].Get(9, 1) != s.Img[0].Get(11, 1) {
			t.Errorf("asymmetric: %g != %g", s.Img[0].Get(9, 1), s.Img[0].Get(11, 1))
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		s := NewImgStack(1, r)
		if err := s.Smooth(make([]float64, 20), 5); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestEBVSmoothing(t *testing.T) {
	s := &EBVSmoothing{
		AlphaCoeff: [2]float64{0.05, 0.0001},
		BetaCoeff:  [2]float64{0.01, 0},
		PctMin:     0.02,
		PctMax:     0.5,
	}
	if s.PctSmoothingMax() != 0.5 {
		t.Errorf("max: %g", s.PctSmoothingMax())
	}
	// α = 0.05 + 0.0001·500 = 0.1
	pct := s.CalcPctSmoothing(500, 0, 7, 8)
	want := []float64{0.02, 0.11, 0.21, 0.31, 0.41, 0.5, 0.5, 0.5}
	for i, w := range want {
		if math.Abs(pct[i]-w) > 1e-12 {
			t.Errorf("pct[%d]: have %g, want %g", i, pct[i], w)
		}
	}

	r := testRect(t, [2]float64{0, 0}, [2]float64{8, 1}, [2]int{8, 2})
	sigma := s.SigmaPix(500, r)
	if len(sigma) != 8 {
		t.Fatalf("length %d", len(sigma))
	}
	// The reddening runs from the first to the last bin edge.
	pct = s.CalcPctSmoothing(500, 0, 8, 8)
	for i, v := range sigma {
		if math.Abs(v-pct[i]*float64(i)) > 1e-12 {
			t.Errorf("sigma[%d]: have %g, want %g", i, v, pct[i]*float64(i))
		}
	}
	if sigma[0] != 0 {
		t.Errorf("first bin smoothed by %g", sigma[0])
	}
}
