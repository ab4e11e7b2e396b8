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

// Package starutil contains the command-line interface for starpdf.
package starutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/starpdf"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	d := starpdf.DefaultOptions()

	evalFlags := []*pflag.FlagSet{runCmd.Flags()}

	// Options are the configuration options available to starpdf.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the minimum severity of log messages:
              one of debug, info, warning, or error.`,
			shorthand:  "l",
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ModelFile",
			usage: `
              ModelFile is the path to the TOML file holding the stellar
              library, luminosity function, extinction coefficients and
              Galactic disk parameters.`,
			defaultVal: "",
			flagsets:   evalFlags,
		},
		{
			name: "PixelFile",
			usage: `
              PixelFile is the path to the TOML file holding the
              photometry of the stars in one pixel.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   evalFlags,
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory the netCDF file of each pixel
              is written to. It is created if it doesn't exist.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   evalFlags,
		},
		{
			name: "SaveSurfaces",
			usage: `
              SaveSurfaces specifies whether to save the stellar surfaces.`,
			defaultVal: true,
			flagsets:   evalFlags,
		},
		{
			name: "ErrFloor",
			usage: `
              ErrFloor is added in quadrature to all magnitude
              uncertainties [mag].`,
			defaultVal: 0.02,
			flagsets:   evalFlags,
		},
		{
			name: "UsePriors",
			usage: `
              UsePriors specifies whether to weight stellar types by the
              Galactic disk model and the luminosity function.`,
			defaultVal: true,
			flagsets:   evalFlags,
		},
		{
			name: "UseParallax",
			usage: `
              UseParallax specifies whether to weight stellar types by
              their agreement with the observed parallax.`,
			defaultVal: false,
			flagsets:   evalFlags,
		},
		{
			name: "RV",
			usage: `
              RV is the ratio of total to selective extinction.`,
			defaultVal: d.RV,
			flagsets:   evalFlags,
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of stars to evaluate concurrently.
              Values < 1 use one worker per processor.`,
			defaultVal: 0,
			flagsets:   evalFlags,
		},
		{
			name: "Grid.EMin",
			usage: `
              Grid.EMin is the lower reddening edge of the grid [mag].`,
			defaultVal: d.Grid.EMin,
			flagsets:   evalFlags,
		},
		{
			name: "Grid.EMax",
			usage: `
              Grid.EMax is the upper reddening edge of the grid [mag].`,
			defaultVal: d.Grid.EMax,
			flagsets:   evalFlags,
		},
		{
			name: "Grid.MuMin",
			usage: `
              Grid.MuMin is the lower distance modulus edge of the grid [mag].`,
			defaultVal: d.Grid.MuMin,
			flagsets:   evalFlags,
		},
		{
			name: "Grid.MuMax",
			usage: `
              Grid.MuMax is the upper distance modulus edge of the grid [mag].`,
			defaultVal: d.Grid.MuMax,
			flagsets:   evalFlags,
		},
		{
			name: "Grid.NE",
			usage: `
              Grid.NE is the number of reddening bins.`,
			defaultVal: d.Grid.NE,
			flagsets:   evalFlags,
		},
		{
			name: "Grid.NMu",
			usage: `
              Grid.NMu is the number of distance modulus bins.`,
			defaultVal: d.Grid.NMu,
			flagsets:   evalFlags,
		},
		{
			name: "Crop.Enable",
			usage: `
              Crop.Enable specifies whether to crop the surfaces to the
              Crop extent before smoothing and saving them.`,
			defaultVal: true,
			flagsets:   evalFlags,
		},
		{
			name: "Crop.EMin",
			usage: `
              Crop.EMin is the lower reddening edge of saved surfaces.`,
			defaultVal: d.Crop.EMin,
			flagsets:   evalFlags,
		},
		{
			name: "Crop.EMax",
			usage: `
              Crop.EMax is the upper reddening edge of saved surfaces.`,
			defaultVal: d.Crop.EMax,
			flagsets:   evalFlags,
		},
		{
			name: "Crop.MuMin",
			usage: `
              Crop.MuMin is the lower distance modulus edge of saved surfaces.`,
			defaultVal: d.Crop.MuMin,
			flagsets:   evalFlags,
		},
		{
			name: "Crop.MuMax",
			usage: `
              Crop.MuMax is the upper distance modulus edge of saved surfaces.`,
			defaultVal: d.Crop.MuMax,
			flagsets:   evalFlags,
		},
		{
			name: "Smoothing.AlphaCoeff",
			usage: `
              Smoothing.AlphaCoeff holds the intercept and nside slope of
              the reddening dependence of the fractional smoothing.`,
			defaultVal: []string{"0", "0"},
			flagsets:   evalFlags,
		},
		{
			name: "Smoothing.BetaCoeff",
			usage: `
              Smoothing.BetaCoeff holds the intercept and nside slope of
              the constant term of the fractional smoothing.`,
			defaultVal: []string{"0", "0"},
			flagsets:   evalFlags,
		},
		{
			name: "Smoothing.PctMin",
			usage: `
              Smoothing.PctMin is the smallest fractional smoothing.`,
			defaultVal: 0.0,
			flagsets:   evalFlags,
		},
		{
			name: "Smoothing.PctMax",
			usage: `
              Smoothing.PctMax is the largest fractional smoothing.
              Smoothing along the reddening axis is disabled if it is <= 0.`,
			defaultVal: 0.0,
			flagsets:   evalFlags,
		},
		{
			name: "Smoothing.NSigma",
			usage: `
              Smoothing.NSigma is the number of standard deviations the
              reddening smoothing kernel extends to.`,
			defaultVal: d.SmoothNSigma,
			flagsets:   evalFlags,
		},
		{
			name: "Kernel.NSigma",
			usage: `
              Kernel.NSigma is the number of standard deviations the
              per-star smoothing kernel extends to.`,
			defaultVal: d.Kernel.NSigma,
			flagsets:   evalFlags,
		},
		{
			name: "Kernel.MinWidth",
			usage: `
              Kernel.MinWidth is the smallest half-width of the per-star
              smoothing kernel, in bins.`,
			defaultVal: d.Kernel.MinWidth,
			flagsets:   evalFlags,
		},
		{
			name: "Kernel.AddDiagonal",
			usage: `
              Kernel.AddDiagonal broadens the per-star smoothing kernel by
              this many bins along each axis.`,
			defaultVal: d.Kernel.AddDiagonal,
			flagsets:   evalFlags,
		},
		{
			name: "Kernel.Subsample",
			usage: `
              Kernel.Subsample is the factor by which the smoothing kernel
              is oversampled before it is averaged onto the grid.`,
			defaultVal: d.Kernel.Subsample,
			flagsets:   evalFlags,
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the netCDF file of stellar surfaces to plot.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Star",
			usage: `
              Star is the index of the star to plot.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the location of the PNG file to create.`,
			defaultVal: "star.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("STARPDF")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(plotCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("starpdf: problem reading configuration file: %v", err)
		}
	}
	return setLogLevel(Cfg.GetString("LogLevel"))
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "starpdf",
	Short: "Distance and reddening probability surfaces for stars.",
	Long: `starpdf calculates, for each star in a sky pixel, the probability density
of its reddening and distance modulus given its photometry, a library of
stellar types, and optionally a Galactic prior and its parallax.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'STARPDF_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of starpdf.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("starpdf v%s\n", starpdf.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that evaluates the stars in one pixel.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the stars in a pixel.",
	Long: `run calculates the reddening and distance modulus probability surface of
every star in the pixel file using the models in the model file, and
saves the surfaces to <OutputDir>/<pixel name>.nc.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		modelFile, err := checkInputFile("ModelFile", Cfg.GetString("ModelFile"))
		if err != nil {
			return err
		}
		pixelFile, err := checkInputFile("PixelFile", Cfg.GetString("PixelFile"))
		if err != nil {
			return err
		}
		o, err := Options(Cfg)
		if err != nil {
			return err
		}
		_, err = Run(context.Background(), modelFile, pixelFile, Cfg.GetFloat64("ErrFloor"), o)
		return err
	},
	DisableAutoGenTag: true,
}

// plotCmd is a command that plots the surface of one star.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot the surface of a star.",
	Long: `plot draws the reddening and distance modulus probability surface of one
star from a file created by the run command as a PNG heat map.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, err := checkInputFile("InputFile", Cfg.GetString("InputFile"))
		if err != nil {
			return err
		}
		plotFile, err := checkOutputFile("PlotFile", Cfg.GetString("PlotFile"))
		if err != nil {
			return err
		}
		return Plot(inputFile, plotFile, Cfg.GetInt("Star"))
	},
	DisableAutoGenTag: true,
}

// Plot draws the surface of star i in netCDF file inputFile to the PNG
// file plotFile.
func Plot(inputFile, plotFile string, i int) error {
	f, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("starpdf: opening surface file: %v", err)
	}
	defer f.Close()
	pixName, rect, surfs, err := starpdf.ReadSurfaces(f)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(surfs) {
		return fmt.Errorf("starpdf: star %d requested but %s has %d stars", i, inputFile, len(surfs))
	}
	w, err := os.Create(plotFile)
	if err != nil {
		return fmt.Errorf("starpdf: creating plot file: %v", err)
	}
	if err = PlotSurface(w, fmt.Sprintf("%s star %d", pixName, i), rect, surfs[i]); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
