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
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var builtinNames = []string{"sRGB", "Adobe", "ProPhoto", "Apple", "WideGamutRGB"}

var (
	sRGBRed   = Chromaticity{0.6400, 0.3300}
	sRGBGreen = Chromaticity{0.3000, 0.6000}
	sRGBBlue  = Chromaticity{0.1500, 0.0600}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t testing.TB, scalar bool) *Context {
	t.Helper()
	ctx, err := NewContext(&Options{ScalarOnly: scalar, Logger: quietLogger()})
	require.NoError(t, err)
	return ctx
}

func TestBuiltinSpaces(t *testing.T) {
	ctx := newTestContext(t, true)
	require.Equal(t, len(builtinNames), ctx.Spaces.Len())

	var names []string
	ctx.Spaces.ForEach(func(s *Space) bool {
		names = append(names, s.Name())
		return true
	})
	assert.Equal(t, builtinNames, names)
}

func TestSRGBMatrix(t *testing.T) {
	ctx := newTestContext(t, true)
	s, ok := ctx.Space("sRGB")
	require.True(t, ok)

	want := Matrix3{
		0.4360747, 0.3850649, 0.1430804,
		0.2225045, 0.7168786, 0.0606169,
		0.0139322, 0.0971045, 0.7141733,
	}
	// The reference values use the D65 white (0.95047, 1, 1.08883); the
	// chromaticity (0.3127, 0.3290) gives 0.4360412 for the first entry.
	got := s.RGBToXYZ()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 3e-4, "entry %d", i)
	}
	assert.InDelta(t, 0.4360747, got[0], 5e-5)
	assert.InDelta(t, 0.4360412, got[0], 1e-6)
}

func TestMatrixRoundTrip(t *testing.T) {
	ctx := newTestContext(t, true)
	for _, s := range ctx.Spaces.Spaces() {
		p := s.RGBToXYZ().Mul(s.XYZToRGB())
		for i := range p {
			assert.InDelta(t, Identity3[i], p[i], 1e-6, "%s: entry %d", s.Name(), i)
		}

		rgb := Vector3{0.2, 0.5, 0.9}
		back := s.FromXYZ(s.ToXYZ(rgb))
		for i := range rgb {
			assert.InDelta(t, rgb[i], back[i], 1e-9, "%s: XYZ round trip", s.Name())
		}
	}
}

func TestD50Normalization(t *testing.T) {
	ctx := newTestContext(t, true)
	for _, s := range ctx.Spaces.Spaces() {
		white := s.ToXYZ(Vector3{1, 1, 1})
		for i := range white {
			assert.InDelta(t, D50WhitePoint[i], white[i], 1e-4, "%s: white[%d]", s.Name(), i)
		}

		// luminance row sums to one
		m := s.RGBToXYZ()
		assert.InDelta(t, 1.0, m[3]+m[4]+m[5], 1e-4, s.Name())
	}
}

func TestChromaticAdaptation(t *testing.T) {
	w := D65.XYZ()
	m := ChromaticAdaptation(w, D50WhitePoint)
	got := m.Apply(w)
	for i := range got {
		assert.InDelta(t, D50WhitePoint[i], got[i], 1e-6)
	}

	id := ChromaticAdaptation(D50WhitePoint, D50WhitePoint)
	for i := range id {
		assert.InDelta(t, Identity3[i], id[i], 1e-6)
	}
}

func TestRegisterDedup(t *testing.T) {
	ctx := newTestContext(t, true)
	sRGB, _ := ctx.Space("sRGB")
	n := ctx.Spaces.Len()

	s, err := ctx.Spaces.RegisterFromChromaticities("other name", D65,
		sRGBRed, sRGBGreen, sRGBBlue, mustTRC("sRGB"), nil, nil)
	require.NoError(t, err)
	assert.Same(t, sRGB, s)
	assert.Equal(t, "sRGB", s.Name(), "first registration wins")
	assert.Equal(t, n, ctx.Spaces.Len())

	// a different curve gives a different space
	s2, err := ctx.Spaces.RegisterFromChromaticities("", D65,
		sRGBRed, sRGBGreen, sRGBBlue, mustTRC("linear"), nil, nil)
	require.NoError(t, err)
	assert.NotSame(t, sRGB, s2)
	assert.Equal(t, n+1, ctx.Spaces.Len())

	// the same numbers as a matrix are a different origin
	s3, err := ctx.Spaces.RegisterFromMatrix("", D65.XYZ(), sRGB.RGBToXYZ(), mustTRC("sRGB"), nil, nil)
	require.NoError(t, err)
	assert.NotSame(t, sRGB, s3)
	s4, err := ctx.Spaces.RegisterFromMatrix("again", D65.XYZ(), sRGB.RGBToXYZ(), mustTRC("sRGB"), nil, nil)
	require.NoError(t, err)
	assert.Same(t, s3, s4)
	assert.Equal(t, n+2, ctx.Spaces.Len())
}

func TestRegisterSynthesizedName(t *testing.T) {
	r := NewRegistry(0, quietLogger())
	s, err := r.RegisterFromChromaticities("", D65, sRGBRed, sRGBGreen, sRGBBlue, mustTRC("sRGB"), nil, nil)
	require.NoError(t, err)

	want := "space-0.3127,0.3290_0.6400,0.3300_0.3000,0.6000_0.1500,0.0600_sRGB,sRGB,sRGB"
	assert.Equal(t, want, s.Name())

	found, ok := r.Lookup(want)
	assert.True(t, ok)
	assert.Same(t, s, found)

	m, err := r.RegisterFromMatrix("", D50WhitePoint, Identity3, mustTRC("linear"), nil, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.Name(), "space-1.0000,0.0000_0.0000,0.0000_1.0000_"), m.Name())
	assert.True(t, strings.HasSuffix(m.Name(), "_linear,linear,linear"), m.Name())
}

func TestRegisterTRCs(t *testing.T) {
	r := NewRegistry(0, quietLogger())

	s, err := r.RegisterFromChromaticities("x", D65, sRGBRed, sRGBGreen, sRGBBlue, mustTRC("2.2"), nil, nil)
	require.NoError(t, err)
	assert.True(t, s.SharedTRC())
	assert.Same(t, s.TRC(0), s.TRC(1))
	assert.Same(t, s.TRC(0), s.TRC(2))

	s, err = r.RegisterFromChromaticities("y", D65, sRGBRed, sRGBGreen, sRGBBlue,
		mustTRC("2.2"), mustTRC("1.8"), nil)
	require.NoError(t, err)
	assert.False(t, s.SharedTRC())
	assert.Same(t, mustTRC("2.2"), s.TRC(2))

	_, err = r.RegisterFromChromaticities("z", D65, sRGBRed, sRGBGreen, sRGBBlue, nil, nil, nil)
	assert.ErrorIs(t, err, errMissingTRC)
	assert.Equal(t, 2, r.Len())
}

func TestRegisterSingular(t *testing.T) {
	r := NewRegistry(0, quietLogger())

	_, err := r.RegisterFromMatrix("flat", D50WhitePoint, Matrix3{1, 1, 1, 1, 1, 1, 1, 1, 1}, mustTRC("linear"), nil, nil)
	assert.ErrorIs(t, err, ErrSingularMatrix)

	_, err = r.RegisterFromChromaticities("zero y", D65, sRGBRed, Chromaticity{0.3, 0}, sRGBBlue, mustTRC("linear"), nil, nil)
	assert.ErrorIs(t, err, ErrSingularMatrix)

	// collinear primaries
	_, err = r.RegisterFromChromaticities("line", D65,
		Chromaticity{0.2, 0.2}, Chromaticity{0.3, 0.3}, Chromaticity{0.4, 0.4}, mustTRC("linear"), nil, nil)
	assert.ErrorIs(t, err, ErrSingularMatrix)

	assert.Equal(t, 0, r.Len())
}

func TestRegistryExhausted(t *testing.T) {
	var logBuf bytes.Buffer
	r := NewRegistry(2, slog.New(slog.NewTextHandler(&logBuf, nil)))

	for i, g := range []float64{1.8, 2.2} {
		_, err := r.RegisterFromChromaticities("", D65, sRGBRed, sRGBGreen, sRGBBlue, GammaTRC(g), nil, nil)
		require.NoError(t, err, "space %d", i)
	}

	s, err := r.RegisterFromChromaticities("", D65, sRGBRed, sRGBGreen, sRGBBlue, mustTRC("sRGB"), nil, nil)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrRegistryExhausted))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, r.Cap())
	assert.Contains(t, logBuf.String(), "registry is full")

	// existing spaces can still be found
	s, err = r.RegisterFromChromaticities("", D65, sRGBRed, sRGBGreen, sRGBBlue, GammaTRC(1.8), nil, nil)
	assert.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRegistryDefaultCapacity(t *testing.T) {
	r := NewRegistry(0, nil)
	assert.Equal(t, DefaultCapacity, r.Cap())

	for i := 0; i < DefaultCapacity; i++ {
		_, err := r.RegisterFromMatrix("", D50WhitePoint, diag(Vector3{1, 1, 1 + float64(i)}), mustTRC("linear"), nil, nil)
		require.NoError(t, err, "space %d", i)
	}
	_, err := r.RegisterFromMatrix("", D50WhitePoint, diag(Vector3{2, 1, 1}), mustTRC("linear"), nil, nil)
	assert.ErrorIs(t, err, ErrRegistryExhausted)
}

func TestLookup(t *testing.T) {
	ctx := newTestContext(t, true)

	for _, name := range builtinNames {
		s, ok := ctx.Space(name)
		if assert.True(t, ok, name) {
			assert.Equal(t, name, s.Name())
			assert.Equal(t, name, s.String())
		}
	}

	s, ok := ctx.Space("no such space")
	assert.False(t, ok)
	assert.Nil(t, s)
}

func TestForEachStops(t *testing.T) {
	ctx := newTestContext(t, true)
	count := 0
	ctx.Spaces.ForEach(func(*Space) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)
}

func TestMatchTRCMatrix(t *testing.T) {
	ctx := newTestContext(t, true)
	sRGB, _ := ctx.Space("sRGB")
	trc := [3]TRC{sRGB.TRC(0), sRGB.TRC(1), sRGB.TRC(2)}

	m := sRGB.RGBToXYZ()
	m[0] += 0.0005
	assert.Same(t, sRGB, ctx.Spaces.MatchTRCMatrix(trc, m))

	m[0] += 0.001
	assert.Nil(t, ctx.Spaces.MatchTRCMatrix(trc, m))

	lin := mustTRC("linear")
	assert.Nil(t, ctx.Spaces.MatchTRCMatrix([3]TRC{lin, lin, lin}, sRGB.RGBToXYZ()))
}
