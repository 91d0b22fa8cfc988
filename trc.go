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
	"hash/crc32"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/chewxy/math32"
)

// TRC is a tone response curve.  It maps encoded channel values to linear
// light and back.
//
// Spaces refer to TRCs by identity: two spaces only share a curve if
// their TRC values compare equal.  Implementations must therefore be
// comparable, typically pointer types.
type TRC interface {
	// Name returns a short name for the curve, e.g. "sRGB" or "2.2".
	Name() string

	// ToLinear converts an encoded value to linear light.
	ToLinear(v float64) float64

	// FromLinear converts a linear value back to the encoded form.
	FromLinear(v float64) float64
}

// BufferTRC is implemented by TRCs which can process whole buffers.
//
// The buffer methods read samples values of channels consecutive entries,
// starting every srcStride entries in src, and write the results with
// stride dstStride into dst.
type BufferTRC interface {
	TRC
	ToLinearBuf(dst, src []float32, srcStride, dstStride, channels, samples int)
	FromLinearBuf(dst, src []float32, srcStride, dstStride, channels, samples int)
}

func toLinearBuf(trc TRC, dst, src []float32, srcStride, dstStride, channels, samples int) {
	if bt, ok := trc.(BufferTRC); ok {
		bt.ToLinearBuf(dst, src, srcStride, dstStride, channels, samples)
		return
	}
	for i := 0; i < samples; i++ {
		for c := 0; c < channels; c++ {
			dst[i*dstStride+c] = float32(trc.ToLinear(float64(src[i*srcStride+c])))
		}
	}
}

func fromLinearBuf(trc TRC, dst, src []float32, srcStride, dstStride, channels, samples int) {
	if bt, ok := trc.(BufferTRC); ok {
		bt.FromLinearBuf(dst, src, srcStride, dstStride, channels, samples)
		return
	}
	for i := 0; i < samples; i++ {
		for c := 0; c < channels; c++ {
			dst[i*dstStride+c] = float32(trc.FromLinear(float64(src[i*srcStride+c])))
		}
	}
}

func isIdentityTRC(trc TRC) bool {
	if c, ok := trc.(interface{ IsIdentity() bool }); ok {
		return c.IsIdentity()
	}
	return false
}

// Curve is a [TRC] given by a gamma exponent, an ICC parametric function or
// a sampled table.  ToLinear evaluates the curve, FromLinear evaluates its
// inverse.
//
// Precedence when evaluating: Table > Params > Gamma.
//
// Gamma and parametric curves are extended to negative inputs by odd
// symmetry and are not clipped above 1, so that out-of-gamut values survive
// a round trip.  Sampled curves are only defined on [0, 1].
//
// Curves should be treated as read-only once they are in use by a space.
type Curve struct {
	// Label is returned by Name.  If empty, a name is derived from the
	// curve data.
	Label string

	// Gamma specifies the exponent for a simple gamma curve: linear = v^Gamma.
	// A value of 1 gives the identity curve.
	Gamma float64

	// FuncType and Params define an ICC parametricCurveType. FuncType selects
	// the ICC function type (0-4) and Params provides the coefficients
	// [g, a, b, c, d, e, f]:
	//   - type 0: y = x^g
	//   - type 1: y = (ax+b)^g for x >= -b/a, else y = 0
	//   - type 2: y = (ax+b)^g + c for x >= -b/a, else y = c
	//   - type 3: y = (ax+b)^g for x >= d, else y = cx
	//   - type 4: y = (ax+b)^g + e for x >= d, else y = cx + f
	FuncType int
	Params   []float64

	// Table specifies a sampled curve. Values are evenly spaced from input
	// 0 to 1, with linear interpolation between samples.
	Table []uint16

	invOnce      sync.Once
	inverseTable []float64
}

// Name implements the [TRC] interface.
func (c *Curve) Name() string {
	if c.Label != "" {
		return c.Label
	}
	switch {
	case c.Table != nil:
		return fmt.Sprintf("table%d-%08x", len(c.Table), crc32.ChecksumIEEE(c.Encode()))
	case c.Params != nil:
		return fmt.Sprintf("para%d-%08x", c.FuncType, crc32.ChecksumIEEE(c.Encode()))
	case c.Gamma == 0 || c.Gamma == 1:
		return "linear"
	default:
		return strconv.FormatFloat(c.Gamma, 'g', -1, 64)
	}
}

func (c *Curve) String() string {
	return c.Name()
}

// IsIdentity returns true if the curve represents an identity function.
func (c *Curve) IsIdentity() bool {
	if (c.Gamma == 1.0 || c.Gamma == 0) && c.Params == nil && c.Table == nil {
		return true
	}
	if c.Table == nil && c.Params != nil && c.FuncType == 0 && c.Params[0] == 1.0 {
		return true
	}
	return false
}

func (c *Curve) isGamma() bool {
	return c.Table == nil && c.Params == nil && c.Gamma != 0
}

// ToLinear implements the [TRC] interface.
func (c *Curve) ToLinear(x float64) float64 {
	if c.Table != nil {
		return c.evaluateSampled(clamp(x, 0, 1))
	}
	if x < 0 {
		return -c.ToLinear(-x)
	}
	switch {
	case c.Params != nil:
		return c.evaluateParametric(x)
	case c.Gamma != 0:
		if x == 0 {
			return 0
		}
		return math.Pow(x, c.Gamma)
	default:
		return x
	}
}

// FromLinear implements the [TRC] interface.
func (c *Curve) FromLinear(y float64) float64 {
	if c.Table != nil {
		return c.invertSampled(clamp(y, 0, 1))
	}
	if y < 0 {
		return -c.FromLinear(-y)
	}
	switch {
	case c.Params != nil:
		return c.invertParametric(y)
	case c.Gamma != 0:
		if y == 0 {
			return 0
		}
		return math.Pow(y, 1/c.Gamma)
	default:
		return y
	}
}

// ToLinearBuf implements the [BufferTRC] interface.
func (c *Curve) ToLinearBuf(dst, src []float32, srcStride, dstStride, channels, samples int) {
	if c.IsIdentity() {
		copyStrided(dst, src, srcStride, dstStride, channels, samples)
		return
	}
	if c.isGamma() {
		powStrided(dst, src, srcStride, dstStride, channels, samples, float32(c.Gamma))
		return
	}
	for i := 0; i < samples; i++ {
		for k := 0; k < channels; k++ {
			dst[i*dstStride+k] = float32(c.ToLinear(float64(src[i*srcStride+k])))
		}
	}
}

// FromLinearBuf implements the [BufferTRC] interface.
func (c *Curve) FromLinearBuf(dst, src []float32, srcStride, dstStride, channels, samples int) {
	if c.IsIdentity() {
		copyStrided(dst, src, srcStride, dstStride, channels, samples)
		return
	}
	if c.isGamma() {
		powStrided(dst, src, srcStride, dstStride, channels, samples, float32(1/c.Gamma))
		return
	}
	for i := 0; i < samples; i++ {
		for k := 0; k < channels; k++ {
			dst[i*dstStride+k] = float32(c.FromLinear(float64(src[i*srcStride+k])))
		}
	}
}

func copyStrided(dst, src []float32, srcStride, dstStride, channels, samples int) {
	for i := 0; i < samples; i++ {
		copy(dst[i*dstStride:i*dstStride+channels], src[i*srcStride:i*srcStride+channels])
	}
}

func powStrided(dst, src []float32, srcStride, dstStride, channels, samples int, g float32) {
	for i := 0; i < samples; i++ {
		for k := 0; k < channels; k++ {
			x := src[i*srcStride+k]
			switch {
			case x > 0:
				x = math32.Pow(x, g)
			case x < 0:
				x = -math32.Pow(-x, g)
			}
			dst[i*dstStride+k] = x
		}
	}
}

func (c *Curve) evaluateParametric(x float64) float64 {
	g := c.Params[0]

	switch c.FuncType {
	case 0:
		if x <= 0 {
			return 0
		}
		return math.Pow(x, g)

	case 1:
		a, b := c.Params[1], c.Params[2]
		if x >= -b/a {
			v := a*x + b
			if v <= 0 {
				return 0
			}
			return math.Pow(v, g)
		}
		return 0

	case 2:
		a, b, cc := c.Params[1], c.Params[2], c.Params[3]
		if x >= -b/a {
			v := a*x + b
			if v <= 0 {
				return cc
			}
			return math.Pow(v, g) + cc
		}
		return cc

	case 3:
		a, b, cc, d := c.Params[1], c.Params[2], c.Params[3], c.Params[4]
		if x >= d {
			v := a*x + b
			if v <= 0 {
				return 0
			}
			return math.Pow(v, g)
		}
		return cc * x

	case 4:
		a, b, cc, d, e, f := c.Params[1], c.Params[2], c.Params[3], c.Params[4], c.Params[5], c.Params[6]
		if x >= d {
			v := a*x + b
			if v <= 0 {
				return e
			}
			return math.Pow(v, g) + e
		}
		return cc*x + f
	}

	return x
}

func (c *Curve) invertParametric(y float64) float64 {
	g := c.Params[0]
	if g == 0 {
		return 0
	}
	invG := 1.0 / g

	switch c.FuncType {
	case 0:
		if y <= 0 {
			return 0
		}
		return math.Pow(y, invG)

	case 1:
		a, b := c.Params[1], c.Params[2]
		if a == 0 {
			return 0
		}
		if y <= 0 {
			return -b / a
		}
		return (math.Pow(y, invG) - b) / a

	case 2:
		a, b, cc := c.Params[1], c.Params[2], c.Params[3]
		if a == 0 {
			return 0
		}
		yc := y - cc
		if yc <= 0 {
			return -b / a
		}
		return (math.Pow(yc, invG) - b) / a

	case 3:
		a, b, cc, d := c.Params[1], c.Params[2], c.Params[3], c.Params[4]
		if y < cc*d {
			if cc == 0 {
				return 0
			}
			return y / cc
		}
		if a == 0 || y <= 0 {
			return d
		}
		return (math.Pow(y, invG) - b) / a

	case 4:
		a, b, cc, d, e, f := c.Params[1], c.Params[2], c.Params[3], c.Params[4], c.Params[5], c.Params[6]
		if y < cc*d+f {
			if cc == 0 {
				return 0
			}
			return (y - f) / cc
		}
		ye := y - e
		if a == 0 || ye <= 0 {
			return d
		}
		return (math.Pow(ye, invG) - b) / a
	}

	return y
}

func (c *Curve) evaluateSampled(x float64) float64 {
	n := len(c.Table)
	if n == 0 {
		return x
	}
	if n == 1 {
		return float64(c.Table[0]) / 65535.0
	}

	pos := x * float64(n-1)
	idx := int(pos)
	if idx >= n-1 {
		return float64(c.Table[n-1]) / 65535.0
	}

	frac := pos - float64(idx)
	v0 := float64(c.Table[idx]) / 65535.0
	v1 := float64(c.Table[idx+1]) / 65535.0
	return v0 + frac*(v1-v0)
}

func (c *Curve) invertSampled(y float64) float64 {
	c.invOnce.Do(c.buildInverseTable)

	n := len(c.inverseTable)
	pos := y * float64(n-1)
	idx := int(pos)
	if idx >= n-1 {
		return c.inverseTable[n-1]
	}

	frac := pos - float64(idx)
	return c.inverseTable[idx] + frac*(c.inverseTable[idx+1]-c.inverseTable[idx])
}

func (c *Curve) buildInverseTable() {
	const invSize = 4096
	inv := make([]float64, invSize)

	n := len(c.Table)
	if n < 2 {
		for i := range inv {
			inv[i] = float64(i) / float64(invSize-1)
		}
		c.inverseTable = inv
		return
	}

	for i := range inv {
		target := uint16(float64(i) / float64(invSize-1) * 65535.0)

		// smallest index with Table[idx] >= target
		idx := sort.Search(n, func(j int) bool {
			return c.Table[j] >= target
		})

		switch {
		case idx == 0:
			inv[i] = 0
		case idx >= n:
			inv[i] = 1
		default:
			v0 := float64(c.Table[idx-1])
			v1 := float64(c.Table[idx])
			if v1 == v0 {
				inv[i] = float64(idx) / float64(n-1)
			} else {
				frac := (float64(target) - v0) / (v1 - v0)
				inv[i] = (float64(idx-1) + frac) / float64(n-1)
			}
		}
	}
	c.inverseTable = inv
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// The process-wide table of shared curves.  Curves handed out by
// TRCByName, GammaTRC and internCurve are singletons, so that spaces using
// "the same" curve compare equal.
var curves = struct {
	sync.Mutex
	byName     map[string]*Curve
	byEncoding map[string]*Curve
}{
	byName:     map[string]*Curve{},
	byEncoding: map[string]*Curve{},
}

var builtinCurvesOnce sync.Once

func builtinCurves() {
	addCurve(&Curve{Label: "linear", Gamma: 1})
	addCurve(&Curve{
		Label:    "sRGB",
		FuncType: 3,
		Params:   []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045},
	})
	addCurve(&Curve{Label: "2.2", Gamma: 2.2})
	addCurve(&Curve{Label: "1.8", Gamma: 1.8})
}

// addCurve must be called with curves locked (or from builtinCurves).
func addCurve(c *Curve) *Curve {
	curves.byName[c.Name()] = c
	key := string(c.Encode())
	if _, seen := curves.byEncoding[key]; !seen {
		curves.byEncoding[key] = c
	}
	return c
}

// TRCByName returns one of the built-in curves "linear", "sRGB", "2.2" and
// "1.8", or any curve registered before using [GammaTRC].
func TRCByName(name string) (TRC, bool) {
	builtinCurvesOnce.Do(builtinCurves)

	curves.Lock()
	defer curves.Unlock()
	c, ok := curves.byName[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// GammaTRC returns the shared gamma curve with the given exponent.
func GammaTRC(gamma float64) TRC {
	builtinCurvesOnce.Do(builtinCurves)

	name := strconv.FormatFloat(gamma, 'g', -1, 64)
	if gamma == 1 {
		name = "linear"
	}

	curves.Lock()
	defer curves.Unlock()
	if c, ok := curves.byName[name]; ok {
		return c
	}
	return addCurve(&Curve{Label: name, Gamma: gamma})
}

// internCurve returns the shared curve whose ICC encoding equals the
// encoding of c, registering c if no such curve exists yet.
func internCurve(c *Curve) *Curve {
	builtinCurvesOnce.Do(builtinCurves)

	key := string(c.Encode())

	curves.Lock()
	defer curves.Unlock()
	if old, ok := curves.byEncoding[key]; ok {
		return old
	}
	return addCurve(c)
}

func mustTRC(name string) TRC {
	trc, ok := TRCByName(name)
	if !ok {
		panic("colorspace: missing built-in TRC " + name)
	}
	return trc
}
