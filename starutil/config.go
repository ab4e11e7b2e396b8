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
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/starpdf"
	"github.com/spf13/cast"
)

// Options returns the pixel evaluation settings held in cfg.
func Options(cfg *viper.Viper) (*starpdf.Options, error) {
	o := starpdf.DefaultOptions()
	o.UsePriors = cfg.GetBool("UsePriors")
	o.UseParallax = cfg.GetBool("UseParallax")
	o.RV = cfg.GetFloat64("RV")
	o.Workers = cfg.GetInt("Workers")
	o.SaveSurfaces = cfg.GetBool("SaveSurfaces")

	o.Grid = starpdf.GridConfig{
		EMin:  cfg.GetFloat64("Grid.EMin"),
		EMax:  cfg.GetFloat64("Grid.EMax"),
		MuMin: cfg.GetFloat64("Grid.MuMin"),
		MuMax: cfg.GetFloat64("Grid.MuMax"),
		NE:    cfg.GetInt("Grid.NE"),
		NMu:   cfg.GetInt("Grid.NMu"),
	}
	if _, err := o.Grid.Rect(); err != nil {
		return nil, fmt.Errorf("starpdf: invalid grid configuration: %v", err)
	}

	if cfg.GetBool("Crop.Enable") {
		o.Crop = &starpdf.CropConfig{
			EMin:  cfg.GetFloat64("Crop.EMin"),
			EMax:  cfg.GetFloat64("Crop.EMax"),
			MuMin: cfg.GetFloat64("Crop.MuMin"),
			MuMax: cfg.GetFloat64("Crop.MuMax"),
		}
	} else {
		o.Crop = nil
	}

	alpha, err := floatPair(cfg, "Smoothing.AlphaCoeff")
	if err != nil {
		return nil, err
	}
	beta, err := floatPair(cfg, "Smoothing.BetaCoeff")
	if err != nil {
		return nil, err
	}
	o.Smoothing = &starpdf.EBVSmoothing{
		AlphaCoeff: alpha,
		BetaCoeff:  beta,
		PctMin:     cfg.GetFloat64("Smoothing.PctMin"),
		PctMax:     cfg.GetFloat64("Smoothing.PctMax"),
	}
	if o.Smoothing.PctMin > o.Smoothing.PctMax {
		return nil, fmt.Errorf("starpdf: Smoothing.PctMin (%g) > Smoothing.PctMax (%g)",
			o.Smoothing.PctMin, o.Smoothing.PctMax)
	}
	o.SmoothNSigma = cfg.GetFloat64("Smoothing.NSigma")

	o.Kernel = starpdf.KernelConfig{
		NSigma:      cfg.GetFloat64("Kernel.NSigma"),
		MinWidth:    cfg.GetInt("Kernel.MinWidth"),
		AddDiagonal: cfg.GetFloat64("Kernel.AddDiagonal"),
		Subsample:   cfg.GetInt("Kernel.Subsample"),
	}
	if o.Kernel.Subsample < 1 {
		return nil, fmt.Errorf("starpdf: Kernel.Subsample must be >= 1 but is %d", o.Kernel.Subsample)
	}

	if o.SaveSurfaces {
		o.Writer = &starpdf.CDFWriter{Dir: os.ExpandEnv(cfg.GetString("OutputDir"))}
	}
	return o, nil
}

// floatPair reads a two-element list of numbers from cfg. Values set on
// the command line arrive as strings.
func floatPair(cfg *viper.Viper, name string) ([2]float64, error) {
	var o [2]float64
	s, err := cast.ToStringSliceE(cfg.Get(name))
	if err != nil {
		return o, fmt.Errorf("starpdf: reading '%s': %v", name, err)
	}
	if len(s) != 2 {
		return o, fmt.Errorf("starpdf: '%s' must have 2 values but has %d", name, len(s))
	}
	for i, v := range s {
		if o[i], err = cast.ToFloat64E(v); err != nil {
			return o, fmt.Errorf("starpdf: reading '%s': %v", name, err)
		}
	}
	return o, nil
}

// setLogLevel sets the level of the standard logger.
func setLogLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("starpdf: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(l)
	return nil
}

// checkInputFile expands environment variables in f and makes sure it
// exists.
func checkInputFile(name, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("you need to specify the %s configuration variable", name)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("starpdf: %s: %v", name, err)
	}
	return f, nil
}

// checkOutputFile expands environment variables in f and makes sure its
// directory exists.
func checkOutputFile(name, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("you need to specify the %s configuration variable", name)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("starpdf: the %s directory doesn't exist: %v", name, err)
	}
	return f, nil
}
