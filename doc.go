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

// Package colorspace maintains a registry of RGB colour spaces and installs
// the pixel conversion kernels between them.
//
// Spaces are defined by chromaticities or by an RGB to XYZ matrix together
// with three tone response curves, and are normalised to D50.  The first
// time a [Context] is asked for a conversion involving a space, linear,
// TRC-encoded and 8-bit kernels to and from every other registered space
// are added to its conversion table, together with premultiplied alpha
// kernels for the space itself.
package colorspace
