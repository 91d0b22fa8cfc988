// seehuhn.de/go/colorspace - RGB colour spaces and pixel conversion kernels
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package colorspace

import (
	"math"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
)

func TestCurveGamma(t *testing.T) {
	tests := []struct {
		gamma float64
		input float64
		want  float64
	}{
		{1.0, 0.5, 0.5},
		{2.0, 0.5, 0.25},
		{2.2, 0.5, 0.2176},
		{2.2, 0.0, 0.0},
		{2.2, 1.0, 1.0},
		{2.0, -0.5, -0.25},
		{2.0, 2.0, 4.0},
	}

	for _, tt := range tests {
		c := &Curve{Gamma: tt.gamma}
		got := c.ToLinear(tt.input)
		if math.Abs(got-tt.want) > 0.001 {
			t.Errorf("Gamma %.1f: ToLinear(%.2f) = %.4f, want %.4f",
				tt.gamma, tt.input, got, tt.want)
		}
	}
}

func TestCurveRoundTrip(t *testing.T) {
	curves := []*Curve{
		{Gamma: 1.8},
		{Gamma: 2.2},
		{FuncType: 0, Params: []float64{2.4}},
		{FuncType: 3, Params: []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045}},
		{FuncType: 4, Params: []float64{2.2, 0.9, 0.1, 0.2, 0.1, 0.01, 0.005}},
	}
	inputs := []float64{-0.5, -0.01, 0.0, 0.01, 0.1, 0.25, 0.5, 0.75, 0.9, 1.0, 1.5}

	for _, c := range curves {
		for _, x := range inputs {
			if c.FuncType == 4 && x < 0 {
				continue
			}
			y := c.ToLinear(x)
			xBack := c.FromLinear(y)
			if math.Abs(xBack-x) > 1e-6 {
				t.Errorf("%s: round-trip failed: %f -> %f -> %f", c.Name(), x, y, xBack)
			}
		}
	}
}

func TestCurveSampled(t *testing.T) {
	table := make([]uint16, 256)
	for i := range table {
		x := float64(i) / 255
		table[i] = uint16(x*x*65535 + 0.5)
	}
	c := &Curve{Table: table}

	assert.InDelta(t, 0.25, c.ToLinear(0.5), 1e-3)
	assert.InDelta(t, 0.0, c.ToLinear(-1), 1e-9)
	assert.InDelta(t, 1.0, c.ToLinear(2), 1e-9)
	for _, x := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		assert.InDelta(t, x, c.FromLinear(c.ToLinear(x)), 2e-3, "x=%g", x)
	}

	if name := c.Name(); !strings.HasPrefix(name, "table256-") {
		t.Errorf("unexpected name %q", name)
	}
}

func TestSRGBCurve(t *testing.T) {
	trc, ok := TRCByName("sRGB")
	if !ok {
		t.Fatal("sRGB curve not found")
	}
	for i := 0; i <= 100; i++ {
		v := float64(i) / 100
		want, _, _ := colorful.Color{R: v, G: v, B: v}.LinearRgb()
		assert.InDelta(t, want, trc.ToLinear(v), 1e-6, "ToLinear(%g)", v)

		back := colorful.LinearRgb(v, v, v)
		assert.InDelta(t, back.R, trc.FromLinear(v), 1e-6, "FromLinear(%g)", v)
	}
}

func TestCurveBuffers(t *testing.T) {
	src := make([]float32, 4*64)
	for i := range src {
		src[i] = float32(i)/float32(len(src)-1)*1.5 - 0.25
	}

	for _, name := range []string{"linear", "sRGB", "2.2", "1.8"} {
		trc := mustTRC(name)
		dst := make([]float32, len(src))
		toLinearBuf(trc, dst, src, 4, 4, 3, 64)
		for i := 0; i < 64; i++ {
			for k := 0; k < 3; k++ {
				want := trc.ToLinear(float64(src[4*i+k]))
				assert.InDelta(t, want, float64(dst[4*i+k]), 2e-6, "%s: to linear %g", name, src[4*i+k])
			}
			if dst[4*i+3] != 0 {
				t.Errorf("%s: alpha channel was written", name)
			}
		}

		back := make([]float32, len(src))
		fromLinearBuf(trc, back, dst, 4, 4, 3, 64)
		for i := 0; i < 64; i++ {
			for k := 0; k < 3; k++ {
				assert.InDelta(t, float64(src[4*i+k]), float64(back[4*i+k]), 1e-5, "%s: round trip", name)
			}
		}
	}
}

func TestCurveIdentity(t *testing.T) {
	tests := []struct {
		c    *Curve
		want bool
	}{
		{&Curve{}, true},
		{&Curve{Gamma: 1}, true},
		{&Curve{FuncType: 0, Params: []float64{1}}, true},
		{&Curve{Gamma: 2.2}, false},
		{&Curve{Table: []uint16{0, 65535}}, false},
	}
	for i, tt := range tests {
		if got := tt.c.IsIdentity(); got != tt.want {
			t.Errorf("%d: IsIdentity() = %t, want %t", i, got, tt.want)
		}
	}
	if !isIdentityTRC(mustTRC("linear")) {
		t.Error("linear TRC is not recognised as identity")
	}
}

func TestTRCInterning(t *testing.T) {
	if GammaTRC(2.2) != mustTRC("2.2") {
		t.Error("GammaTRC(2.2) is not the built-in curve")
	}
	if GammaTRC(1) != mustTRC("linear") {
		t.Error("GammaTRC(1) is not the linear curve")
	}
	if GammaTRC(2.6) != GammaTRC(2.6) {
		t.Error("GammaTRC(2.6) returned different curves")
	}
	if _, ok := TRCByName("no such curve"); ok {
		t.Error("unexpected curve found")
	}

	// curves read from ICC data are quantized the same way as the
	// built-in curves
	c, err := decodeCurve(mustCurve(t, "2.2").Encode())
	if err != nil {
		t.Fatal(err)
	}
	if internCurve(c) != mustTRC("2.2") {
		t.Error("decoded 2.2 gamma curve was not interned")
	}
	c, err = decodeCurve(mustCurve(t, "sRGB").Encode())
	if err != nil {
		t.Fatal(err)
	}
	if internCurve(c) != mustTRC("sRGB") {
		t.Error("decoded sRGB curve was not interned")
	}

	fresh := &Curve{Gamma: 3.1}
	if internCurve(fresh) != fresh {
		t.Error("new curve not added")
	}
	if internCurve(&Curve{Gamma: 3.1}) != fresh {
		t.Error("equal curve not interned")
	}
}

func mustCurve(t testing.TB, name string) *Curve {
	t.Helper()
	c, ok := mustTRC(name).(*Curve)
	if !ok {
		t.Fatalf("%s is not a *Curve", name)
	}
	return c
}
