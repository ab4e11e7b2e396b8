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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
)

func TestCDFWriter(t *testing.T) {
	dir, err := ioutil.TempDir("", "starpdf")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	rect := testRect(t, [2]float64{0, 4}, [2]float64{7, 19}, [2]int{7, 5})
	surfs := make([]*sparse.DenseArray, 3)
	for k := range surfs {
		surfs[k] = sparse.ZerosDense(7, 5)
		for i := range surfs[k].Elements {
			surfs[k].Elements[i] = float64(k) + 0.01*float64(i)
		}
	}

	w := &CDFWriter{Dir: filepath.Join(dir, "out")}
	var sw SurfaceWriter = w
	if err = sw.WriteSurfaces("nside512/pix 42", rect, surfs, map[string]string{"description": "stellar pdfs", "run_id": "abc"}); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "out", "nside512_pix_42.nc"); w.Path("nside512/pix 42") != want {
		t.Errorf("path: have %s, want %s", w.Path("nside512/pix 42"), want)
	}

	f, err := os.Open(w.Path("nside512/pix 42"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	pixName, rect2, surfs2, err := ReadSurfaces(f)
	if err != nil {
		t.Fatal(err)
	}
	if pixName != "nside512/pix 42" {
		t.Errorf("pixel name: %s", pixName)
	}
	if rect2.NBins != rect.NBins || rect2.Min != rect.Min || rect2.Max != rect.Max {
		t.Errorf("grid: have %+v, want %+v", rect2, rect)
	}
	if len(surfs2) != len(surfs) {
		t.Fatalf("have %d surfaces, want %d", len(surfs2), len(surfs))
	}
	for k := range surfs {
		arrayCompare(surfs2[k], surfs[k], 1e-6, "surface", t)
	}

	if err = w.WriteSurfaces("empty", rect, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(w.Path("empty")); !os.IsNotExist(err) {
		t.Error("a file was created for a pixel with no stars")
	}

	if err = w.WriteSurfaces("bad", rect, []*sparse.DenseArray{sparse.ZerosDense(3, 3)}, nil); err == nil {
		t.Error("mismatched surface shape should fail")
	}
}
