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
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/starpdf/internal/hash"
)

// CropConfig gives the (E, μ) extent surfaces are cropped to after they
// have been evaluated.
type CropConfig struct {
	EMin, EMax   float64
	MuMin, MuMax float64
}

// DefaultCrop is the extent of saved stellar surfaces.
var DefaultCrop = CropConfig{EMin: 0, EMax: 7, MuMin: 4, MuMax: 19}

// Options holds the settings for evaluating the stars in a pixel.
type Options struct {
	// UsePriors specifies whether to weight stellar types by the
	// Galactic prior and the luminosity function.
	UsePriors bool

	// UseParallax specifies whether to weight stellar types by the
	// agreement between their implied and observed parallaxes.
	UseParallax bool

	// RV is the slope of the extinction law.
	RV float64

	// Grid is the grid surfaces are evaluated on.
	Grid GridConfig

	// Crop, if not nil, is the extent surfaces are cropped to before
	// smoothing and saving.
	Crop *CropConfig

	// Smoothing, if not nil, specifies the pixel-wide smoothing along the
	// reddening axis.
	Smoothing *EBVSmoothing

	// SmoothNSigma is the number of standard deviations the reddening
	// smoothing kernel extends to.
	SmoothNSigma float64

	// Kernel specifies the per-star smoothing kernel.
	Kernel KernelConfig

	// SaveSurfaces specifies whether to pass the surfaces to Writer.
	SaveSurfaces bool
	Writer       SurfaceWriter

	// Workers is the number of stars evaluated concurrently. If < 1,
	// runtime.GOMAXPROCS(0) is used.
	Workers int

	Log logrus.FieldLogger
}

// DefaultOptions returns the settings normally used for survey pixels.
func DefaultOptions() *Options {
	crop := DefaultCrop
	return &Options{
		RV:           3.1,
		Grid:         DefaultGrid,
		Crop:         &crop,
		SmoothNSigma: 5,
		Kernel:       DefaultKernel,
		Log:          logrus.StandardLogger(),
	}
}

// runConfig holds the options that determine the values of the results.
type runConfig struct {
	UsePriors, UseParallax bool
	RV                     float64
	Grid                   GridConfig
	Crop                   *CropConfig
	Smoothing              *EBVSmoothing
	SmoothNSigma           float64
	Kernel                 KernelConfig
}

// RunID returns an identifier of the settings in o that affect the
// calculated surfaces.
func (o *Options) RunID() string {
	return hash.Hash(runConfig{
		UsePriors:    o.UsePriors,
		UseParallax:  o.UseParallax,
		RV:           o.RV,
		Grid:         o.Grid,
		Crop:         o.Crop,
		Smoothing:    o.Smoothing,
		SmoothNSigma: o.SmoothNSigma,
		Kernel:       o.Kernel,
	})
}

// Timing holds the time spent in each stage of a pixel evaluation.
type Timing struct {
	Sample, Smooth, Write, Total time.Duration
}

// PerStar returns the times divided by the number of stars, in ms.
func (t Timing) PerStar(n int) logrus.Fields {
	if n == 0 {
		n = 1
	}
	ms := func(d time.Duration) float64 { return d.Seconds() * 1000 / float64(n) }
	return logrus.Fields{
		"sample_ms": ms(t.Sample),
		"smooth_ms": ms(t.Smooth),
		"write_ms":  ms(t.Write),
		"total_ms":  ms(t.Total),
	}
}

// Result holds the output of EvaluatePixel.
type Result struct {
	// Stack holds one surface per star, in the order of the pixel's
	// stars.
	Stack *ImgStack

	// Chi2 is the minimum chi-square per passband of each star.
	Chi2 []float64

	Timing Timing
}

// EvaluatePixel calculates the (E, μ) surface of every star in pix.
//
// The stars are evaluated concurrently; each surface is only
// written by the goroutine evaluating its star. After all stars are done,
// the surfaces are optionally cropped, smoothed along the reddening axis
// with a width that depends on the resolution of the pixel, and passed
// to o.Writer.
func EvaluatePixel(ctx context.Context, stellar StellarModel, los LOSModel, ext ExtinctionModel, pix *Pixel, o *Options) (*Result, error) {
	tStart := time.Now()
	log := o.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	rect, err := o.Grid.Rect()
	if err != nil {
		return nil, err
	}
	if o.SaveSurfaces && o.Writer == nil {
		return nil, fmt.Errorf("starpdf: SaveSurfaces is true but no Writer is specified")
	}
	for i := range pix.Stars {
		if pix.Stars[i].NPassbands() == 0 {
			return nil, fmt.Errorf("starpdf: star %d (object %d) of pixel %s: %v", i, pix.Stars[i].ObjID, pix.Name, ErrNoBands)
		}
	}
	m := &Marginalizer{
		Stellar:     stellar,
		LOS:         los,
		Extinction:  ext,
		UsePriors:   o.UsePriors,
		UseParallax: o.UseParallax,
		RV:          o.RV,
		Kernel:      o.Kernel,
		Log:         log,
	}
	if err = m.Check(); err != nil {
		return nil, err
	}

	nStars := len(pix.Stars)
	res := &Result{
		Stack: NewImgStack(nStars, rect),
		Chi2:  make([]float64, nStars),
	}

	nprocs := o.Workers
	if nprocs < 1 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	errs := make([]error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < nStars; i += nprocs {
				if err := ctx.Err(); err != nil {
					errs[pp] = err
					return
				}
				log.WithFields(logrus.Fields{"pixel": pix.Name, "star": i + 1, "of": nStars}).Debug("evaluating star")
				chi2, err := m.IntegrateMLSolution(&pix.Stars[i], res.Stack, i)
				if err != nil {
					errs[pp] = fmt.Errorf("starpdf: star %d of pixel %s: %v", i, pix.Name, err)
					return
				}
				res.Chi2[i] = chi2
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if o.Crop != nil {
		c := o.Crop
		if err = res.Stack.Crop([2]float64{c.EMin, c.MuMin}, [2]float64{c.EMax, c.MuMax}); err != nil {
			return nil, err
		}
	}

	tSmooth := time.Now()
	if o.Smoothing != nil && o.Smoothing.PctSmoothingMax() > 0 {
		log.WithField("pixel", pix.Name).Info("smoothing surfaces along reddening axis")
		sigmaPix := o.Smoothing.SigmaPix(pix.Nside, res.Stack.Rect)
		if err = res.Stack.Smooth(sigmaPix, o.SmoothNSigma); err != nil {
			return nil, err
		}
	}

	tWrite := time.Now()
	if o.SaveSurfaces {
		attrs := map[string]string{
			"description": "stellar pdfs",
			"run_id":      o.RunID(),
		}
		if err = o.Writer.WriteSurfaces(pix.Name, res.Stack.Rect, res.Stack.Img, attrs); err != nil {
			return nil, fmt.Errorf("starpdf: saving surfaces for pixel %s: %v", pix.Name, err)
		}
	}
	tEnd := time.Now()

	res.Timing = Timing{
		Sample: tSmooth.Sub(tStart),
		Smooth: tWrite.Sub(tSmooth),
		Write:  tEnd.Sub(tWrite),
		Total:  tEnd.Sub(tStart),
	}
	log.WithFields(res.Timing.PerStar(nStars)).WithField("pixel", pix.Name).Info("done with grid evaluation for all stars")
	if nStars > 1 {
		log.WithFields(logrus.Fields{
			"pixel":     pix.Name,
			"chi2_mean": stats.StatsMean(res.Chi2),
			"chi2_sd":   stats.StatsSampleStandardDeviation(res.Chi2),
			"chi2_min":  stats.StatsMin(res.Chi2),
			"chi2_max":  stats.StatsMax(res.Chi2),
		}).Info("chi-square per passband")
	}
	return res, nil
}
