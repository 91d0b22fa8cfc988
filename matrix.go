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
	"errors"
	"math"
)

// Matrix3 is a 3x3 matrix in row-major order.
type Matrix3 [9]float64

// Vector3 is a column vector with three entries.
type Vector3 [3]float64

// Matrix3f is the single precision version of a [Matrix3], used by the
// pixel kernels.
type Matrix3f [9]float32

// Identity3 is the 3x3 identity matrix.
var Identity3 = Matrix3{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// ErrSingularMatrix is returned when a matrix cannot be inverted.
// This happens for example when the given primaries are collinear.
var ErrSingularMatrix = errors.New("colorspace: singular colour matrix")

// singularLimit is the smallest absolute determinant accepted by Inverse.
const singularLimit = 1e-12

// Mul returns the matrix product m·b.
func (m Matrix3) Mul(b Matrix3) Matrix3 {
	var c Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c[3*i+j] = m[3*i]*b[j] + m[3*i+1]*b[3+j] + m[3*i+2]*b[6+j]
		}
	}
	return c
}

// Apply returns the matrix-vector product m·v.
func (m Matrix3) Apply(v Vector3) Vector3 {
	return Vector3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Det returns the determinant of m.
func (m Matrix3) Det() float64 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// Inverse returns the inverse of m, computed from the adjugate.
// If the determinant is (close to) zero, [ErrSingularMatrix] is returned.
func (m Matrix3) Inverse() (Matrix3, error) {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	det := m.Det()
	if math.Abs(det) < singularLimit || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix3{}, ErrSingularMatrix
	}
	invDet := 1.0 / det

	return Matrix3{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet,
	}, nil
}

// Float32 returns a single precision copy of m.
func (m Matrix3) Float32() Matrix3f {
	var res Matrix3f
	for i, x := range m {
		res[i] = float32(x)
	}
	return res
}

// scaleColumns multiplies column j of m by s[j].
func (m Matrix3) scaleColumns(s Vector3) Matrix3 {
	for i := 0; i < 3; i++ {
		m[3*i] *= s[0]
		m[3*i+1] *= s[1]
		m[3*i+2] *= s[2]
	}
	return m
}

// diag returns the diagonal matrix with the entries of v.
func diag(v Vector3) Matrix3 {
	return Matrix3{
		v[0], 0, 0,
		0, v[1], 0,
		0, 0, v[2],
	}
}

// ApplyBuf4 applies m to the first three channels of n RGBA pixels.
// The fourth channel is copied unchanged.  src and dst may be the same slice.
func (m *Matrix3f) ApplyBuf4(dst, src []float32, n int) {
	src = src[:4*n]
	dst = dst[:4*n]
	for i := 0; i < len(src); i += 4 {
		r, g, b, a := src[i], src[i+1], src[i+2], src[i+3]
		dst[i] = m[0]*r + m[1]*g + m[2]*b
		dst[i+1] = m[3]*r + m[4]*g + m[5]*b
		dst[i+2] = m[6]*r + m[7]*g + m[8]*b
		dst[i+3] = a
	}
}

// ApplyBuf3 applies m to n packed RGB pixels.  src and dst may be the same
// slice.
func (m *Matrix3f) ApplyBuf3(dst, src []float32, n int) {
	src = src[:3*n]
	dst = dst[:3*n]
	for i := 0; i < len(src); i += 3 {
		r, g, b := src[i], src[i+1], src[i+2]
		dst[i] = m[0]*r + m[1]*g + m[2]*b
		dst[i+1] = m[3]*r + m[4]*g + m[5]*b
		dst[i+2] = m[6]*r + m[7]*g + m[8]*b
	}
}
