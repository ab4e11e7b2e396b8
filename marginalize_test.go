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

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// scenarioLibrary returns a 3×3 library in which only the central
// stellar type places the scenario star inside the 5×5 test grid.
func scenarioLibrary(t *testing.T) *TableStellarModel {
	lib := NewTableStellarModel([]float64{3, 4, 5}, []float64{-1, -0.5, 0})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := 15*float64(i-1) + 45*float64(j-1)
			sed := SED{5 + d, 4 + d, 3 + d, 2 + d, 1 + d}
			if err := lib.Add(i, j, sed); err != nil {
				t.Fatal(err)
			}
		}
	}
	return lib
}

func scenarioStar() *Magnitudes {
	return syntheticStar(SED{5, 4, 3, 2, 1}, 10, 2, 0, 1)
}

func scenarioStack(t *testing.T, min, max [2]float64) *ImgStack {
	return NewImgStack(1, testRect(t, min, max, [2]int{5, 5}))
}

func checkNonNegative(t *testing.T, s *ImgStack) {
	for k, img := range s.Img {
		for i, v := range img.Elements {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("surface %d element %d: %g", k, i, v)
			}
		}
	}
}

func TestIntegrateMLSolution(t *testing.T) {
	t.Run("delta kernel", func(t *testing.T) {
		m := &Marginalizer{
			Stellar:    scenarioLibrary(t),
			Extinction: testExtinction,
			RV:         3.1,
			Kernel:     KernelConfig{NSigma: 5, MinWidth: 2, Subsample: 5},
		}
		s := scenarioStack(t, [2]float64{0, 0}, [2]float64{4, 20})
		chi2, err := m.IntegrateMLSolution(scenarioStar(), s, 0)
		if err != nil {
			t.Fatal(err)
		}
		if chi2 < 0 || chi2 > 1e-6 {
			t.Errorf("chi2 per passband: %g", chi2)
		}
		checkNonNegative(t, s)
		for i, v := range s.Img[0].Elements {
			if i == 2*5+2 {
				if math.Abs(v-1) > 1e-6 {
					t.Errorf("peak: have %g, want 1", v)
				}
			} else if v > 1e-6 {
				t.Errorf("element %d: %g", i, v)
			}
		}
	})

	t.Run("default kernel", func(t *testing.T) {
		m := &Marginalizer{
			Stellar:    scenarioLibrary(t),
			Extinction: testExtinction,
			RV:         3.1,
			Kernel:     DefaultKernel,
		}
		s := scenarioStack(t, [2]float64{0, 0}, [2]float64{4, 20})
		if _, err := m.IntegrateMLSolution(scenarioStar(), s, 0); err != nil {
			t.Fatal(err)
		}
		checkNonNegative(t, s)
		imax := 0
		for i, v := range s.Img[0].Elements {
			if v > s.Img[0].Elements[imax] {
				imax = i
			}
		}
		if imax != 2*5+2 {
			t.Errorf("peak at (%d, %d), want (2, 2)", imax/5, imax%5)
		}
		if s.Img[0].Get(2, 2) < 1 {
			t.Errorf("peak value %g < 1", s.Img[0].Get(2, 2))
		}
	})

	t.Run("outside grid", func(t *testing.T) {
		m := &Marginalizer{
			Stellar:    scenarioLibrary(t),
			Extinction: testExtinction,
			RV:         3.1,
			Kernel:     DefaultKernel,
		}
		s := scenarioStack(t, [2]float64{0, 11}, [2]float64{4, 19})
		chi2, err := m.IntegrateMLSolution(scenarioStar(), s, 0)
		if err != nil {
			t.Fatal(err)
		}
		if math.IsNaN(chi2) || math.IsInf(chi2, 0) {
			t.Errorf("chi2 per passband: %g", chi2)
		}
		for i, v := range s.Img[0].Elements {
			if v != 0 {
				t.Errorf("element %d: %g", i, v)
			}
		}
	})

	t.Run("no bands", func(t *testing.T) {
		m := &Marginalizer{Stellar: scenarioLibrary(t), Extinction: testExtinction, RV: 3.1, Kernel: DefaultKernel}
		star := scenarioStar()
		star.Err[0], star.Err[1] = math.Inf(1), 2*MissingErr
		s := scenarioStack(t, [2]float64{0, 0}, [2]float64{4, 20})
		if _, err := m.IntegrateMLSolution(star, s, 0); err != ErrNoBands {
			t.Errorf("error: %v", err)
		}
	})

	t.Run("reinitialized", func(t *testing.T) {
		m := &Marginalizer{Stellar: scenarioLibrary(t), Extinction: testExtinction, RV: 3.1, Kernel: DefaultKernel}
		s := scenarioStack(t, [2]float64{0, 0}, [2]float64{4, 20})
		for i := range s.Img[0].Elements {
			s.Img[0].Elements[i] = 100
		}
		if _, err := m.IntegrateMLSolution(scenarioStar(), s, 0); err != nil {
			t.Fatal(err)
		}
		s2 := scenarioStack(t, [2]float64{0, 0}, [2]float64{4, 20})
		if _, err := m.IntegrateMLSolution(scenarioStar(), s2, 0); err != nil {
			t.Fatal(err)
		}
		arrayCompare(s.Img[0], s2.Img[0], 0, "reinitialized", t)
	})
}

func TestSampleMissingSEDs(t *testing.T) {
	lib := NewTableStellarModel([]float64{3, 4}, []float64{-1, 0})
	m := &Marginalizer{Stellar: lib, Extinction: testExtinction, RV: 3.1}
	r := testRect(t, [2]float64{0, 0}, [2]float64{4, 20}, [2]int{5, 5})
	if _, _, err := m.Sample(scenarioStar(), r); err == nil {
		t.Error("empty library should give an error")
	}

	if err := lib.Add(1, 0, SED{5, 4, 3, 2, 1}); err != nil {
		t.Fatal(err)
	}
	img, chi2, err := m.Sample(scenarioStar(), r)
	if err != nil {
		t.Fatal(err)
	}
	if chi2 > 1e-6 {
		t.Errorf("chi2: %g", chi2)
	}
	if different(img.Sum(), 1, 1e-6) {
		t.Errorf("mass: %g", img.Sum())
	}
}

// orderLibrary returns a library whose stellar types all place a
// three-band star somewhere inside a 20×20 grid on [0, 4]×[5, 15].
func orderLibrary(t *testing.T) *TableStellarModel {
	lib := NewTableStellarModel([]float64{3, 3.5, 4, 4.5}, []float64{-1, -0.5, 0})
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			sed := SED{5 + 0.4*float64(i) + 0.05*float64(j), 4 + 0.4*float64(i), 3 + 0.4*float64(i) - 0.03*float64(j), 2, 1}
			if err := lib.Add(i, j, sed); err != nil {
				t.Fatal(err)
			}
		}
	}
	return lib
}

func TestSampleOrderIndependence(t *testing.T) {
	lib := orderLibrary(t)
	star := syntheticStar(SED{5.4, 4.4, 3.4, 2, 1}, 10, 1.5, 0, 1, 2)
	star.M[2] += 0.01
	r := testRect(t, [2]float64{0, 5}, [2]float64{4, 15}, [2]int{20, 20})

	m := &Marginalizer{Stellar: lib, Extinction: testExtinction, RV: 3.1}
	want, chi2Want, err := m.Sample(star, r)
	if err != nil {
		t.Fatal(err)
	}
	if want.Sum() <= 1 {
		t.Errorf("expected more than one stellar type in the grid; mass = %g", want.Sum())
	}

	for _, perm := range [][]int{
		{11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		{3, 7, 0, 11, 5, 1, 9, 2, 6, 10, 4, 8},
	} {
		m.Stellar = permutedModel{StellarModel: lib, perm: perm}
		have, chi2, err := m.Sample(star, r)
		if err != nil {
			t.Fatal(err)
		}
		if chi2 != chi2Want {
			t.Errorf("chi2: have %g, want %g", chi2, chi2Want)
		}
		arrayCompare(have, want, 1e-12, "permuted", t)
	}
}

// testLOS prefers metal-poor stars.
type testLOS struct{}

func (testLOS) LogPrior(mu, Mr, FeH float64) float64 { return -10 * FeH * FeH }

func TestPriors(t *testing.T) {
	// Two stellar types fit equally well, at μ = 10 and μ = 14.
	lib := NewTableStellarModel([]float64{4}, []float64{-1, 0})
	if err := lib.Add(0, 0, SED{5, 4, 3, 2, 1}); err != nil {
		t.Fatal(err)
	}
	if err := lib.Add(0, 1, SED{1, 0, -1, -2, -3}); err != nil {
		t.Fatal(err)
	}
	r := testRect(t, [2]float64{0, 0}, [2]float64{4, 20}, [2]int{5, 5})

	for _, test := range []struct {
		name             string
		priors, parallax bool
		want10, want14   float64
		los              LOSModel
	}{
		{name: "none", want10: 1, want14: 1},
		{name: "parallax", parallax: true, want10: 1, want14: 0},
		{name: "metallicity", priors: true, los: testLOS{}, want10: math.Exp(-10), want14: 1},
		{name: "flat", priors: true, los: FlatLOSModel{}, want10: 1, want14: 1},
	} {
		t.Run(test.name, func(t *testing.T) {
			star := scenarioStar()
			star.Pi, star.PiErr = 0.001, 0.0001
			m := &Marginalizer{
				Stellar:     lib,
				LOS:         test.los,
				Extinction:  testExtinction,
				UsePriors:   test.priors,
				UseParallax: test.parallax,
				RV:          3.1,
			}
			if err := m.Check(); err != nil {
				t.Fatal(err)
			}
			img, _, err := m.Sample(star, r)
			if err != nil {
				t.Fatal(err)
			}
			if v := img.Get(2, 2); math.Abs(v-test.want10) > 1e-6 {
				t.Errorf("μ = 10: have %g, want %g", v, test.want10)
			}
			if v := img.Get(2, 3); math.Abs(v-test.want14) > 1e-6 {
				t.Errorf("μ = 14: have %g, want %g", v, test.want14)
			}
		})
	}
}

func TestMarginalizerCheck(t *testing.T) {
	for _, m := range []*Marginalizer{
		{Extinction: testExtinction},
		{Stellar: NewTableStellarModel([]float64{1}, []float64{1})},
		{Stellar: NewTableStellarModel([]float64{1}, []float64{1}), Extinction: testExtinction, UsePriors: true},
	} {
		if err := m.Check(); err == nil {
			t.Errorf("%+v should fail the check", m)
		}
	}
}

func TestIntegrateMLSolutionKernel(t *testing.T) {
	m := &Marginalizer{
		Stellar:    orderLibrary(t),
		Extinction: testExtinction,
		RV:         3.1,
		Kernel:     DefaultKernel,
	}
	star := syntheticStar(SED{5.4, 4.4, 3.4, 2, 1}, 10, 1.5, 0, 1, 2)
	star.M[1] -= 0.02
	s := NewImgStack(1, testRect(t, [2]float64{0, 5}, [2]float64{4, 15}, [2]int{20, 20}))
	if _, err := m.IntegrateMLSolution(star, s, 0); err != nil {
		t.Fatal(err)
	}

	img, _, err := m.Sample(star, s.Rect)
	if err != nil {
		t.Fatal(err)
	}
	ic := StarCovariance(star, testExtinction, 3.1)
	want := Filter2D(img, GaussianKernel(ic.Transpose(), s.Rect, DefaultKernel))
	arrayCompare(s.Img[0], want, 0, "surface", t)
}

func TestIntegrateMLSolutionOneBand(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	m := &Marginalizer{
		Stellar:    scenarioLibrary(t),
		Extinction: testExtinction,
		RV:         3.1,
		Kernel:     DefaultKernel,
		Log:        log,
	}
	star := syntheticStar(SED{5, 4, 3, 2, 1}, 10, 2, 1)
	star.ObjID = 12
	s := scenarioStack(t, [2]float64{0, 0}, [2]float64{4, 20})
	if _, err := m.IntegrateMLSolution(star, s, 0); err != nil {
		t.Fatal(err)
	}
	checkNonNegative(t, s)

	if len(hook.Entries) != 1 {
		t.Fatalf("have %d log entries, want 1", len(hook.Entries))
	}
	e := hook.LastEntry()
	if e.Level != logrus.WarnLevel {
		t.Errorf("level: %v", e.Level)
	}
	if e.Data["passbands"] != 1 || e.Data["object"] != uint64(12) {
		t.Errorf("fields: %v", e.Data)
	}

	// Two bands are enough to separate distance from reddening.
	hook.Reset()
	if _, err := m.IntegrateMLSolution(scenarioStar(), s, 0); err != nil {
		t.Fatal(err)
	}
	if len(hook.Entries) != 0 {
		t.Errorf("unexpected log entry: %v", hook.LastEntry().Message)
	}
}
