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

import "fmt"

// Chromaticity is a point (x, y) in the CIE xy chromaticity diagram.
type Chromaticity struct {
	X, Y float64
}

// XYZ returns the tristimulus value with luminance Y = 1 which has the
// chromaticity c.
func (c Chromaticity) XYZ() Vector3 {
	return Vector3{c.X / c.Y, 1, (1 - c.X - c.Y) / c.Y}
}

// Some frequently used white points.
var (
	D65 = Chromaticity{0.3127, 0.3290}
	D50 = Chromaticity{0.34567, 0.3585}
)

// D50WhitePoint is the XYZ reference white all space matrices are adapted
// to.  This is the illuminant of the ICC profile connection space.
var D50WhitePoint = Vector3{0.9642, 1.0, 0.8249}

// The Bradford cone response matrix and its inverse.
var (
	bradford = Matrix3{
		0.8951000, 0.2664000, -0.1614000,
		-0.7502000, 1.7135000, 0.0367000,
		0.0389000, -0.0685000, 1.0296000,
	}
	bradfordInv = Matrix3{
		0.9869929, -0.1470543, 0.1599627,
		0.4323053, 0.5183603, 0.0492912,
		-0.0085287, 0.0400428, 0.9684867,
	}
)

// ChromaticAdaptation returns the Bradford matrix which maps XYZ values
// seen under the white point from to XYZ values seen under the white point
// to.
func ChromaticAdaptation(from, to Vector3) Matrix3 {
	a := bradford.Apply(from)
	b := bradford.Apply(to)
	ratio := diag(Vector3{b[0] / a[0], b[1] / a[1], b[2] / a[2]})
	return bradfordInv.Mul(ratio).Mul(bradford)
}

// Space is a linear RGB colour space, together with the tone response
// curves which encode its channels.
//
// Spaces are created by a [Registry] and never change afterwards.
// The RGB to XYZ matrices always map to D50-adapted XYZ, irrespective of
// the native white point of the space.
type Space struct {
	name string

	origin     spaceOrigin
	params     [9]float64 // chromaticities xr,yr,xg,yg,xb,yb,xw,yw or matrix entries
	whitePoint Vector3    // native white point, XYZ
	trc        [3]TRC

	rgbToXYZ  Matrix3
	xyzToRGB  Matrix3
	rgbToXYZf Matrix3f
	xyzToRGBf Matrix3f
}

type spaceOrigin uint8

const (
	fromChromaticities spaceOrigin = iota + 1
	fromMatrix
)

// newSpaceFromChromaticities derives the matrices of a space from its
// primaries and white point.
func newSpaceFromChromaticities(white, r, g, b Chromaticity, trc [3]TRC) (*Space, error) {
	s := &Space{
		origin: fromChromaticities,
		params: [9]float64{r.X, r.Y, g.X, g.Y, b.X, b.Y, white.X, white.Y},
		trc:    trc,
	}
	for _, c := range []Chromaticity{white, r, g, b} {
		if c.Y == 0 {
			return nil, fmt.Errorf("chromaticity %v: %w", c, ErrSingularMatrix)
		}
	}
	s.whitePoint = white.XYZ()

	rXYZ, gXYZ, bXYZ := r.XYZ(), g.XYZ(), b.XYZ()
	m := Matrix3{
		rXYZ[0], gXYZ[0], bXYZ[0],
		rXYZ[1], gXYZ[1], bXYZ[1],
		rXYZ[2], gXYZ[2], bXYZ[2],
	}
	mInv, err := m.Inverse()
	if err != nil {
		return nil, err
	}
	m = m.scaleColumns(mInv.Apply(s.whitePoint))

	chad := ChromaticAdaptation(s.whitePoint, D50WhitePoint)
	if err := s.setMatrix(chad.Mul(m)); err != nil {
		return nil, err
	}
	return s, nil
}

// newSpaceFromMatrix uses a given RGB to XYZ matrix without further
// adaptation.
func newSpaceFromMatrix(white Vector3, rgbToXYZ Matrix3, trc [3]TRC) (*Space, error) {
	s := &Space{
		origin:     fromMatrix,
		params:     rgbToXYZ,
		whitePoint: white,
		trc:        trc,
	}
	if err := s.setMatrix(rgbToXYZ); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Space) setMatrix(m Matrix3) error {
	inv, err := m.Inverse()
	if err != nil {
		return err
	}
	s.rgbToXYZ = m
	s.xyzToRGB = inv
	s.rgbToXYZf = m.Float32()
	s.xyzToRGBf = inv.Float32()
	return nil
}

// synthesizeName builds the name used for spaces registered without one.
func (s *Space) synthesizeName() string {
	p := &s.params
	if s.origin == fromMatrix {
		return fmt.Sprintf("space-%.4f,%.4f_%.4f,%.4f_%.4f_%.4f,%.4f_%.4f,%.4f_%s,%s,%s",
			p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7], p[8],
			s.trc[0].Name(), s.trc[1].Name(), s.trc[2].Name())
	}
	return fmt.Sprintf("space-%.4f,%.4f_%.4f,%.4f_%.4f,%.4f_%.4f,%.4f_%s,%s,%s",
		p[6], p[7], p[0], p[1], p[2], p[3], p[4], p[5],
		s.trc[0].Name(), s.trc[1].Name(), s.trc[2].Name())
}

// Name returns the name of the space.
func (s *Space) Name() string {
	return s.name
}

func (s *Space) String() string {
	return s.name
}

// TRC returns the tone response curve of channel i (0 = red, 1 = green,
// 2 = blue).
func (s *Space) TRC(i int) TRC {
	return s.trc[i]
}

// SharedTRC reports whether all three channels use the same curve.
func (s *Space) SharedTRC() bool {
	return s.trc[0] == s.trc[1] && s.trc[1] == s.trc[2]
}

// WhitePoint returns the native white point of the space, in XYZ.
func (s *Space) WhitePoint() Vector3 {
	return s.whitePoint
}

// RGBToXYZ returns the matrix which maps linear RGB values to D50 XYZ.
func (s *Space) RGBToXYZ() Matrix3 {
	return s.rgbToXYZ
}

// XYZToRGB returns the matrix which maps D50 XYZ values to linear RGB.
func (s *Space) XYZToRGB() Matrix3 {
	return s.xyzToRGB
}

// RGBToXYZf returns the single precision version of [Space.RGBToXYZ].
func (s *Space) RGBToXYZf() Matrix3f {
	return s.rgbToXYZf
}

// XYZToRGBf returns the single precision version of [Space.XYZToRGB].
func (s *Space) XYZToRGBf() Matrix3f {
	return s.xyzToRGBf
}

// ToXYZ converts linear RGB values to D50 XYZ.
func (s *Space) ToXYZ(rgb Vector3) Vector3 {
	return s.rgbToXYZ.Apply(rgb)
}

// FromXYZ converts D50 XYZ values to linear RGB.
func (s *Space) FromXYZ(xyz Vector3) Vector3 {
	return s.xyzToRGB.Apply(xyz)
}

// spaceKey holds the defining parameters of a space, used for deduplication.
type spaceKey struct {
	origin     spaceOrigin
	params     [9]float64
	whitePoint Vector3
	trc        [3]TRC
}
