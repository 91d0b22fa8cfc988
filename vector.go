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
	"unsafe"

	"golang.org/x/sys/cpu"
)

// width selects how many float lanes a kernel processes per step.
type width int

const (
	scalarWidth width = 1
	vectorWidth width = 4
)

func (w width) String() string {
	if w == vectorWidth {
		return "vec4"
	}
	return "scalar"
}

// VectorSupported reports whether the CPU has 128-bit float SIMD units
// (SSE2 on x86, ASIMD on arm64).  If so, contexts install the vector
// kernels by default.
func VectorSupported() bool {
	return cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD
}

// vec4 is one 128-bit register of four float32 lanes.
type vec4 [4]float32

func load4(s []float32) vec4 {
	return vec4{s[0], s[1], s[2], s[3]}
}

func (v vec4) store(s []float32) {
	s[0], s[1], s[2], s[3] = v[0], v[1], v[2], v[3]
}

func (v vec4) mul(w vec4) vec4 {
	return vec4{v[0] * w[0], v[1] * w[1], v[2] * w[2], v[3] * w[3]}
}

func (v vec4) add(w vec4) vec4 {
	return vec4{v[0] + w[0], v[1] + w[1], v[2] + w[2], v[3] + w[3]}
}

// splat broadcasts lane i to all lanes.
func (v vec4) splat(i int) vec4 {
	return vec4{v[i], v[i], v[i], v[i]}
}

// shuffle takes the two low lanes from a and the two high lanes from b,
// like SHUFPS.
func shuffle(a, b vec4, i0, i1, i2, i3 int) vec4 {
	return vec4{a[i0], a[i1], b[i2], b[i3]}
}

// reverse rotates RGBA to ABGR and back.
func (v vec4) reverse() vec4 {
	return vec4{v[3], v[2], v[1], v[0]}
}

// aligned16 reports whether the slice data starts on a 16-byte boundary.
func aligned16(s []float32) bool {
	if len(s) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))%16 == 0
}

// matMulBuf4 applies m to the colour channels of n RGBA pixels, leaving
// alpha unchanged.  dst and src may be the same slice.
func matMulBuf4(w width, m *Matrix3f, dst, src []float32, n int) {
	src = src[:4*n]
	dst = dst[:4*n]
	if w != vectorWidth || !aligned16(src) || !aligned16(dst) {
		m.ApplyBuf4(dst, src, n)
		return
	}

	// the columns of m; lane 3 is overwritten with the source alpha
	m0 := vec4{m[0], m[3], m[6], 0}
	m1 := vec4{m[1], m[4], m[7], 0}
	m2 := vec4{m[2], m[5], m[8], 0}
	for i := 0; i < len(src); i += 4 {
		c := load4(src[i:])
		rgba := m0.mul(c.splat(0)).add(m1.mul(c.splat(1))).add(m2.mul(c.splat(2)))
		rgba[3] = c[3]
		rgba.store(dst[i:])
	}
}
