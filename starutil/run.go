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
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/starpdf"
)

// Run evaluates the stars in pixelFile with the models in modelFile.
// errFloor is added in quadrature to the magnitude uncertainties.
func Run(ctx context.Context, modelFile, pixelFile string, errFloor float64, o *starpdf.Options) (*starpdf.Result, error) {
	log := o.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	f, err := os.Open(modelFile)
	if err != nil {
		return nil, fmt.Errorf("starpdf: opening model file: %v", err)
	}
	model, err := starpdf.ReadModel(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	f, err = os.Open(pixelFile)
	if err != nil {
		return nil, fmt.Errorf("starpdf: opening pixel file: %v", err)
	}
	pix, err := starpdf.ReadPixel(f, errFloor)
	f.Close()
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"pixel":      pix.Name,
		"nside":      pix.Nside,
		"stars":      len(pix.Stars),
		"stellar_Mr": model.Stellar.NMr(),
		"stellar_Fe": model.Stellar.NFeH(),
		"run_id":     o.RunID(),
	}).Info("evaluating pixel")

	return starpdf.EvaluatePixel(ctx, model.Stellar, model.LOS(pix.L, pix.B), model.Extinction, pix, o)
}
