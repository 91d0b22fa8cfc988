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
	"fmt"
	"sync"
)

// Kind identifies the algorithm implemented by a [Kernel].
type Kind uint8

// The kernel kinds.
const (
	KindLinear            Kind = iota + 1 // matrix only
	KindNonlinear                         // linearize, matrix, re-encode
	KindNonlinearToLinear                 // linearize, matrix
	KindNonlinearU8                       // 8-bit table lookup, matrix, re-encode
	KindPremultiply                       // straight to premultiplied alpha
	KindUnpremultiply                     // premultiplied to straight alpha
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindNonlinear:
		return "nonlinear"
	case KindNonlinearToLinear:
		return "nonlinear-to-linear"
	case KindNonlinearU8:
		return "nonlinear-u8"
	case KindPremultiply:
		return "premultiply"
	case KindUnpremultiply:
		return "unpremultiply"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Kernel converts runs of pixels between two fixed formats.
//
// Kernels are stateless apart from their precomputed payload, and may be
// used from several goroutines at the same time.  Concrete kernels
// implement either [FloatKernel] or [U8Kernel].
type Kernel interface {
	Kind() Kind

	// Name distinguishes different implementations of the same conversion.
	Name() string
}

// FloatKernel is a [Kernel] which operates on float32 buffers.
type FloatKernel interface {
	Kernel

	// ConvertFloat converts n pixels from src to dst and returns n.
	// Unless documented otherwise, src and dst may be the same slice.
	ConvertFloat(dst, src []float32, n int) int
}

// U8Kernel is a [Kernel] which operates on 8-bit buffers.
type U8Kernel interface {
	Kernel

	// ConvertU8 converts n pixels from src to dst and returns n.
	ConvertU8(dst, src []uint8, n int) int
}

// matrixPayload is the data precomputed for a pair of spaces.
type matrixPayload struct {
	m   Matrix3f
	lut *[256]float32 // linearization of 8-bit source values, or nil
}

// newMatrixPayload computes the combined matrix XYZtoRGB(dst)·RGBtoXYZ(src).
// If withLUT is set, a table of the source red TRC at i/255 is added; the
// green and blue TRCs are assumed to agree with the red one.
func newMatrixPayload(src, dst *Space, withLUT bool) *matrixPayload {
	p := &matrixPayload{
		m: dst.xyzToRGB.Mul(src.rgbToXYZ).Float32(),
	}
	if withLUT {
		trc := src.trc[0]
		if isIdentityTRC(trc) {
			p.lut = identityLUT()
		} else {
			lut := new([256]float32)
			for i := range lut {
				lut[i] = float32(trc.ToLinear(float64(i) / 255))
			}
			p.lut = lut
		}
	}
	return p
}

// identityLUT maps 8-bit values to i/255.
var identityLUT = sync.OnceValue(func() *[256]float32 {
	lut := new([256]float32)
	for i := range lut {
		lut[i] = float32(float64(i) / 255)
	}
	return lut
})

// linearKernel applies the combined matrix to linear RGB or RGBA data.
type linearKernel struct {
	p     *matrixPayload
	comps int
	w     width
}

func (k *linearKernel) Kind() Kind { return KindLinear }

func (k *linearKernel) Name() string {
	return fmt.Sprintf("universal-rgb%d-%s", k.comps, k.w)
}

func (k *linearKernel) ConvertFloat(dst, src []float32, n int) int {
	if k.comps == 3 {
		k.p.m.ApplyBuf3(dst, src, n)
	} else {
		matMulBuf4(k.w, &k.p.m, dst, src, n)
	}
	return n
}

// nonlinearKernel converts TRC-encoded RGBA data.  If linearOut is set,
// the result is left in linear light.
type nonlinearKernel struct {
	p         *matrixPayload
	src, dst  *Space
	linearOut bool
	w         width
}

func (k *nonlinearKernel) Kind() Kind {
	if k.linearOut {
		return KindNonlinearToLinear
	}
	return KindNonlinear
}

func (k *nonlinearKernel) Name() string {
	return fmt.Sprintf("universal-%s-%s", k.Kind(), k.w)
}

func (k *nonlinearKernel) ConvertFloat(dst, src []float32, n int) int {
	trcIn(k.src, dst, src, n)
	matMulBuf4(k.w, &k.p.m, dst, dst, n)
	if !k.linearOut {
		trcOut(k.dst, dst, dst, n)
	}
	return n
}

// trcIn copies alpha and linearizes the colour channels of n RGBA pixels.
func trcIn(space *Space, dst, src []float32, n int) {
	for i := 0; i < n; i++ {
		dst[4*i+3] = src[4*i+3]
	}
	if space.SharedTRC() {
		toLinearBuf(space.trc[0], dst, src, 4, 4, 3, n)
		return
	}
	for c := 0; c < 3; c++ {
		toLinearBuf(space.trc[c], dst[c:], src[c:], 4, 4, 1, n)
	}
}

// trcOut encodes the colour channels of n RGBA pixels.  Alpha is not
// touched.
func trcOut(space *Space, dst, src []float32, n int) {
	if space.SharedTRC() {
		fromLinearBuf(space.trc[0], dst, src, 4, 4, 3, n)
		return
	}
	for c := 0; c < 3; c++ {
		fromLinearBuf(space.trc[c], dst[c:], src[c:], 4, 4, 1, n)
	}
}

// u8Chunk is the number of pixels an 8-bit kernel processes at a time.
const u8Chunk = 64

// nonlinearU8Kernel converts TRC-encoded 8-bit RGBA data.
type nonlinearU8Kernel struct {
	p   *matrixPayload
	dst *Space
	w   width
}

func (k *nonlinearU8Kernel) Kind() Kind { return KindNonlinearU8 }

func (k *nonlinearU8Kernel) Name() string {
	return "universal-nonlinear-u8-" + k.w.String()
}

func (k *nonlinearU8Kernel) ConvertU8(dst, src []uint8, n int) int {
	var buf [4 * u8Chunk]float32
	lut := k.p.lut

	for done := 0; done < n; done += u8Chunk {
		m := min(u8Chunk, n-done)
		in := src[4*done : 4*(done+m)]
		out := dst[4*done : 4*(done+m)]

		for i := 0; i < len(in); i += 4 {
			buf[i] = lut[in[i]]
			buf[i+1] = lut[in[i+1]]
			buf[i+2] = lut[in[i+2]]
			out[i+3] = in[i+3]
		}
		rgb := buf[:4*m]
		matMulBuf4(k.w, &k.p.m, rgb, rgb, m)
		trcOut(k.dst, rgb, rgb, m)
		for i := 0; i < len(rgb); i += 4 {
			out[i] = encodeU8(rgb[i])
			out[i+1] = encodeU8(rgb[i+1])
			out[i+2] = encodeU8(rgb[i+2])
		}
	}
	return n
}

// encodeU8 maps [0, 1] to [0, 255].  Values outside the range are clipped
// before scaling, since converting them would overflow.
func encodeU8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v * 255.5)
}
