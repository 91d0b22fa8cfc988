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

// InstallCrossSpaceConversions installs the conversions between space and
// every other registered space, in both directions, for linear float RGBA
// and RGB, TRC-encoded float RGBA (also to linear RGBA) and TRC-encoded
// 8-bit RGBA.  It also installs the premultiplication kernels of space.
//
// Installation is idempotent: conversions which already exist are left
// alone and their payload is not recomputed.
func (c *Context) InstallCrossSpaceConversions(space *Space) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.installPremultiplied(space)

	n := 0
	c.Spaces.ForEach(func(other *Space) bool {
		if other == space {
			return true
		}
		n += c.installPair(other, space)
		n += c.installPair(space, other)
		return true
	})
	c.adapted[space] = true

	c.logger.Debug("installed universal RGB conversions",
		"space", space.Name(), "new", n, "total", c.Conversions.Len())
}

// installPair adds the conversions from src to dst and returns how many of
// them were new.  c.mu must be held.
func (c *Context) installPair(src, dst *Space) int {
	var p, pLUT *matrixPayload
	payload := func() *matrixPayload {
		if p == nil {
			p = newMatrixPayload(src, dst, false)
		}
		return p
	}
	payloadLUT := func() *matrixPayload {
		if pLUT == nil {
			pLUT = newMatrixPayload(src, dst, true)
		}
		return pLUT
	}

	w := c.w
	edges := []struct {
		src, dst Format
		name     string
		build    func() Kernel
	}{
		{
			FormatFor(RGBA, Float, src), FormatFor(RGBA, Float, dst),
			(&linearKernel{comps: 4, w: w}).Name(),
			func() Kernel { return &linearKernel{p: payload(), comps: 4, w: w} },
		},
		{
			FormatFor(RGB, Float, src), FormatFor(RGB, Float, dst),
			(&linearKernel{comps: 3, w: scalarWidth}).Name(),
			func() Kernel { return &linearKernel{p: payload(), comps: 3, w: scalarWidth} },
		},
		{
			FormatFor(RGBAGamma, Float, src), FormatFor(RGBAGamma, Float, dst),
			(&nonlinearKernel{w: w}).Name(),
			func() Kernel { return &nonlinearKernel{p: payload(), src: src, dst: dst, w: w} },
		},
		{
			FormatFor(RGBAGamma, Float, src), FormatFor(RGBA, Float, dst),
			(&nonlinearKernel{linearOut: true, w: w}).Name(),
			func() Kernel { return &nonlinearKernel{p: payload(), src: src, dst: dst, linearOut: true, w: w} },
		},
		{
			FormatFor(RGBAGamma, U8, src), FormatFor(RGBAGamma, U8, dst),
			(&nonlinearU8Kernel{w: w}).Name(),
			func() Kernel { return &nonlinearU8Kernel{p: payloadLUT(), dst: dst, w: w} },
		},
	}

	n := 0
	for _, e := range edges {
		if _, added := c.Conversions.addLazy(e.src, e.dst, e.name, e.build); added {
			n++
		}
	}
	return n
}

// installPremultiplied adds the conversions between straight and
// premultiplied linear float RGBA within space.  When vector kernels are
// enabled, both unpremultiply strategies are installed and compete for the
// same pair.  c.mu must be held.
func (c *Context) installPremultiplied(space *Space) {
	straight := FormatFor(RGBA, Float, space)
	premul := FormatFor(RaGaBaA, Float, space)

	c.Conversions.Add(straight, premul, &premultiplyKernel{w: c.w})
	if c.w == vectorWidth {
		c.Conversions.Add(premul, straight, &unpremultiplyKernel{w: vectorWidth, strategy: unpremultiplyShuffle})
		c.Conversions.Add(premul, straight, &unpremultiplyKernel{w: vectorWidth, strategy: unpremultiplyReciprocal})
	} else {
		c.Conversions.Add(premul, straight, &unpremultiplyKernel{w: scalarWidth})
	}
}
