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

// premultiplyKernel converts straight alpha RGBA to premultiplied RaGaBaA.
type premultiplyKernel struct {
	w width
}

func (k *premultiplyKernel) Kind() Kind { return KindPremultiply }

func (k *premultiplyKernel) Name() string {
	return "premultiply-" + k.w.String()
}

func (k *premultiplyKernel) ConvertFloat(dst, src []float32, n int) int {
	src = src[:4*n]
	dst = dst[:4*n]

	i := 0
	if k.w == vectorWidth && aligned16(src) && aligned16(dst) {
		// two pixels per iteration
		for ; i+2 <= n; i += 2 {
			rgba0 := load4(src[4*i:])
			rgba1 := load4(src[4*i+4:])

			aaaa0 := rgba0.splat(3)
			aaaa1 := rgba1.splat(3)

			rgba0 = rgba0.mul(aaaa0)
			rgba1 = rgba1.mul(aaaa1)

			// move the original alpha back into lane 3
			rbaa0 := shuffle(rgba0, aaaa0, 0, 2, 0, 0)
			rbaa1 := shuffle(rgba1, aaaa1, 0, 2, 0, 0)
			shuffle(rgba0, rbaa0, 0, 1, 1, 2).store(dst[4*i:])
			shuffle(rgba1, rbaa1, 0, 1, 1, 2).store(dst[4*i+4:])
		}
	}

	for ; i < n; i++ {
		s := src[4*i : 4*i+4]
		d := dst[4*i : 4*i+4]
		a := s[3]
		d[0] = s[0] * a
		d[1] = s[1] * a
		d[2] = s[2] * a
		d[3] = a
	}
	return n
}

// unpremultiplyStrategy selects one of two equivalent vector formulations.
type unpremultiplyStrategy uint8

const (
	// broadcast the reciprocal of alpha and multiply
	unpremultiplyShuffle unpremultiplyStrategy = iota
	// rotate alpha into lane 0, compute the reciprocal there and spin it
	// across the register
	unpremultiplyReciprocal
)

// unpremultiplyKernel converts premultiplied RaGaBaA to straight alpha RGBA.
// Pixels with alpha <= 0 (or NaN) get RGB = 0.
type unpremultiplyKernel struct {
	w        width
	strategy unpremultiplyStrategy
}

func (k *unpremultiplyKernel) Kind() Kind { return KindUnpremultiply }

func (k *unpremultiplyKernel) Name() string {
	if k.w != vectorWidth {
		return "unpremultiply-scalar"
	}
	if k.strategy == unpremultiplyReciprocal {
		return "unpremultiply-reciprocal-vec4"
	}
	return "unpremultiply-shuffle-vec4"
}

func (k *unpremultiplyKernel) ConvertFloat(dst, src []float32, n int) int {
	src = src[:4*n]
	dst = dst[:4*n]

	i := 0
	if k.w == vectorWidth && aligned16(src) && aligned16(dst) {
		if k.strategy == unpremultiplyReciprocal {
			for ; i < n; i++ {
				unpremultiplySpin(dst[4*i:], src[4*i:])
			}
		} else {
			for ; i < n; i++ {
				unpremultiplyBroadcast(dst[4*i:], src[4*i:])
			}
		}
	}

	for ; i < n; i++ {
		s := src[4*i : 4*i+4]
		d := dst[4*i : 4*i+4]
		alpha := s[3]
		if !(alpha > 0) {
			d[0], d[1], d[2] = 0, 0, 0
		} else {
			recip := 1 / alpha
			d[0] = s[0] * recip
			d[1] = s[1] * recip
			d[2] = s[2] * recip
		}
		d[3] = alpha
	}
	return n
}

func unpremultiplyBroadcast(dst, src []float32) {
	pre := load4(src)

	var rgba vec4
	if alpha := pre[3]; alpha > 0 {
		recip := 1 / alpha
		rgba = pre.mul(vec4{recip, recip, recip, recip})
	}

	// shuffle the original alpha value back in
	rbaa := shuffle(rgba, pre, 0, 2, 3, 3)
	shuffle(rgba, rbaa, 0, 1, 1, 2).store(dst)
}

func unpremultiplySpin(dst, src []float32) {
	preABGR := load4(src).reverse()

	var abgr vec4
	if preABGR[0] > 0 {
		recip := vec4{1 / preABGR[0]}
		abgr = preABGR.mul(recip.splat(0))
	}

	// move the original alpha back into lane 0
	abgr[0] = preABGR[0]
	abgr.reverse().store(dst)
}
