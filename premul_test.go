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
	"testing"

	"github.com/google/go-cmp/cmp"
)

var unpremultiplyKernels = []*unpremultiplyKernel{
	{w: scalarWidth},
	{w: vectorWidth, strategy: unpremultiplyShuffle},
	{w: vectorWidth, strategy: unpremultiplyReciprocal},
}

func TestPremultiplySeam(t *testing.T) {
	// odd pixel counts exercise the scalar tail after the vector loop
	for _, n := range []int{0, 1, 2, 3, 7, 64, 65} {
		src := testPixels(n)

		want := alignedFloats(4 * n)
		(&premultiplyKernel{w: scalarWidth}).ConvertFloat(want, src, n)

		got := alignedFloats(4 * n)
		(&premultiplyKernel{w: vectorWidth}).ConvertFloat(got, src, n)
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("n=%d: vector and scalar differ (-want +got):\n%s", n, d)
		}

		// an unaligned destination takes the scalar path
		buf := make([]float32, 4*n+1)
		(&premultiplyKernel{w: vectorWidth}).ConvertFloat(buf[1:], src, n)
		if d := cmp.Diff(want, buf[1:]); d != "" {
			t.Errorf("n=%d: unaligned output differs (-want +got):\n%s", n, d)
		}

		for i := 0; i < n; i++ {
			a := src[4*i+3]
			for c := 0; c < 3; c++ {
				if want[4*i+c] != src[4*i+c]*a {
					t.Fatalf("pixel %d channel %d: %g != %g*%g", i, c, want[4*i+c], src[4*i+c], a)
				}
			}
			if want[4*i+3] != a {
				t.Fatalf("pixel %d: alpha changed", i)
			}
		}
	}
}

func TestUnpremultiplyStrategies(t *testing.T) {
	for _, n := range []int{1, 5, 64} {
		straight := testPixels(n)
		pre := alignedFloats(4 * n)
		(&premultiplyKernel{w: scalarWidth}).ConvertFloat(pre, straight, n)

		var first []float32
		for _, k := range unpremultiplyKernels {
			out := alignedFloats(4 * n)
			k.ConvertFloat(out, pre, n)
			if first == nil {
				first = out
			} else if d := cmp.Diff(first, out); d != "" {
				t.Errorf("n=%d: %s differs from scalar kernel:\n%s", n, k.Name(), d)
			}

			for i := 0; i < n; i++ {
				a := straight[4*i+3]
				for c := 0; c < 3; c++ {
					want := straight[4*i+c]
					if a == 0 {
						want = 0
					}
					if math.Abs(float64(out[4*i+c]-want)) > 1e-6 {
						t.Errorf("%s: pixel %d channel %d: got %g, want %g", k.Name(), i, c, out[4*i+c], want)
					}
				}
				if out[4*i+3] != a {
					t.Errorf("%s: pixel %d: alpha changed", k.Name(), i)
				}
			}
		}
	}
}

func TestUnpremultiplyZeroAlpha(t *testing.T) {
	nan := float32(math.NaN())
	src := alignedFloats(4 * 4)
	copy(src, []float32{
		0.5, 0.25, 1, 0,
		0.5, 0.25, 1, -1,
		0.5, 0.25, 1, nan,
		0, 0, 0, 0,
	})

	for _, k := range unpremultiplyKernels {
		dst := alignedFloats(len(src))
		k.ConvertFloat(dst, src, 4)
		for i := 0; i < 4; i++ {
			for c := 0; c < 3; c++ {
				if v := dst[4*i+c]; v != 0 {
					t.Errorf("%s: pixel %d channel %d = %g, want 0", k.Name(), i, c, v)
				}
			}
		}
		if dst[3] != 0 || dst[7] != -1 || !math.IsNaN(float64(dst[11])) {
			t.Errorf("%s: alpha not preserved: %v", k.Name(), dst)
		}
	}
}

func TestPremultiplyInPlace(t *testing.T) {
	const n = 13
	orig := testPixels(n)
	want := alignedFloats(4 * n)
	(&premultiplyKernel{w: scalarWidth}).ConvertFloat(want, orig, n)

	for _, w := range []width{scalarWidth, vectorWidth} {
		buf := alignedFloats(4 * n)
		copy(buf, orig)
		(&premultiplyKernel{w: w}).ConvertFloat(buf, buf, n)
		if d := cmp.Diff(want, buf); d != "" {
			t.Errorf("%s: in-place premultiply differs:\n%s", w, d)
		}
	}

	for _, k := range unpremultiplyKernels {
		buf := alignedFloats(4 * n)
		copy(buf, want)
		k.ConvertFloat(buf, buf, n)
		for i := range buf {
			if i%4 != 3 && orig[4*(i/4)+3] == 0 {
				continue
			}
			if math.Abs(float64(buf[i]-orig[i])) > 1e-6 {
				t.Errorf("%s: sample %d: got %g, want %g", k.Name(), i, buf[i], orig[i])
			}
		}
	}
}

func TestPremultipliedInstalled(t *testing.T) {
	for _, scalar := range widths(t) {
		ctx := newTestContext(t, scalar)
		s, _ := ctx.Space("Apple")
		straight := FormatFor(RGBA, Float, s)
		premul := FormatFor(RaGaBaA, Float, s)

		if _, ok := ctx.Conversion(straight, premul); !ok {
			t.Fatal("premultiply kernel missing")
		}
		cands := ctx.Conversions.Candidates(premul, straight)
		wantCands := 1
		if !scalar {
			wantCands = 2
		}
		if len(cands) != wantCands {
			t.Errorf("scalar=%t: %d unpremultiply kernels, want %d", scalar, len(cands), wantCands)
		}
	}
}

func BenchmarkUnpremultiply(b *testing.B) {
	const n = 4096
	src := alignedFloats(4 * n)
	for i := range src {
		src[i] = float32(i%7+1) / 8
	}
	dst := alignedFloats(4 * n)
	for _, k := range unpremultiplyKernels {
		b.Run(k.Name(), func(b *testing.B) {
			b.SetBytes(4 * 4 * n)
			for i := 0; i < b.N; i++ {
				k.ConvertFloat(dst, src, n)
			}
		})
	}
}
