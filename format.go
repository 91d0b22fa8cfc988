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

// Model describes the channel layout and encoding of a pixel format.
type Model uint8

// These are the pixel models the conversion kernels know about.
const (
	RGBA      Model = iota + 1 // linear light RGB with straight alpha
	RGB                        // linear light RGB, no alpha
	RGBAGamma                  // TRC-encoded RGB with linear alpha ("R'G'B'A")
	RaGaBaA                    // linear light RGB premultiplied by alpha
)

func (m Model) String() string {
	switch m {
	case RGBA:
		return "RGBA"
	case RGB:
		return "RGB"
	case RGBAGamma:
		return "R'G'B'A"
	case RaGaBaA:
		return "RaGaBaA"
	default:
		return fmt.Sprintf("Model(%d)", m)
	}
}

// Components returns the number of channels per pixel.
func (m Model) Components() int {
	if m == RGB {
		return 3
	}
	return 4
}

// SampleType is the storage type of a single channel value.
type SampleType uint8

// Supported sample types.
const (
	Float SampleType = iota + 1 // float32, nominal range [0, 1]
	U8                          // uint8, range [0, 255]
)

func (t SampleType) String() string {
	switch t {
	case Float:
		return "float"
	case U8:
		return "u8"
	default:
		return fmt.Sprintf("SampleType(%d)", t)
	}
}

// Format names a concrete pixel layout in a given colour space.
// Formats are comparable and can be used as map keys.
type Format struct {
	Model Model
	Type  SampleType
	Space *Space
}

// FormatFor returns the format with the given model and sample type in
// space.
func FormatFor(model Model, typ SampleType, space *Space) Format {
	return Format{Model: model, Type: typ, Space: space}
}

// Components returns the number of channels per pixel.
func (f Format) Components() int {
	return f.Model.Components()
}

func (f Format) String() string {
	name := f.Model.String() + " " + f.Type.String()
	if f.Space != nil {
		name += "@" + f.Space.Name()
	}
	return name
}
