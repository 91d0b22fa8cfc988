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
	"log/slog"
	"sync"
)

// Options configures a [Context].
type Options struct {
	// Capacity is the maximal number of colour spaces.
	// The default is [DefaultCapacity].
	Capacity int

	// ScalarOnly disables the vector kernels even if the CPU supports them.
	ScalarOnly bool

	// Logger receives diagnostic messages.  The default is slog.Default().
	Logger *slog.Logger
}

// Context owns a colour space registry and the conversions installed
// between the formats of its spaces.
//
// Conversions for a space are installed the first time the space takes
// part in a call to [Context.Conversion] (or explicitly via
// [Context.InstallCrossSpaceConversions]).  Kernel execution needs no
// locking; registration and installation are serialised internally.
type Context struct {
	Spaces      *Registry
	Conversions *ConversionTable

	w      width
	logger *slog.Logger

	mu      sync.Mutex // serialises installations
	adapted map[*Space]bool
}

// NewContext returns a new context which contains the built-in spaces
// "sRGB", "Adobe", "ProPhoto", "Apple" and "WideGamutRGB".
// If opt is nil, default options are used.
func NewContext(opt *Options) (*Context, error) {
	if opt == nil {
		opt = &Options{}
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Context{
		Spaces:      NewRegistry(opt.Capacity, logger),
		Conversions: NewConversionTable(),
		w:           scalarWidth,
		logger:      logger,
		adapted:     make(map[*Space]bool),
	}
	if VectorSupported() && !opt.ScalarOnly {
		c.w = vectorWidth
	}
	if err := registerBuiltins(c.Spaces); err != nil {
		return nil, err
	}
	return c, nil
}

var defaultContext = sync.OnceValue(func() *Context {
	c, err := NewContext(nil)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the process-wide context.
func Default() *Context {
	return defaultContext()
}

// RegisterFromChromaticities adds a colour space to c.Spaces, see
// [Registry.RegisterFromChromaticities].  Conversions for the new space are
// installed on first use.
func (c *Context) RegisterFromChromaticities(name string, white, red, green, blue Chromaticity, trcRed, trcGreen, trcBlue TRC) (*Space, error) {
	return c.Spaces.RegisterFromChromaticities(name, white, red, green, blue, trcRed, trcGreen, trcBlue)
}

// RegisterFromMatrix adds a colour space to c.Spaces, see
// [Registry.RegisterFromMatrix].
func (c *Context) RegisterFromMatrix(name string, white Vector3, rgbToXYZ Matrix3, trcRed, trcGreen, trcBlue TRC) (*Space, error) {
	return c.Spaces.RegisterFromMatrix(name, white, rgbToXYZ, trcRed, trcGreen, trcBlue)
}

// Space returns the registered space with the given name.
func (c *Context) Space(name string) (*Space, bool) {
	return c.Spaces.Lookup(name)
}

// Vector reports whether the context installs vector kernels.
func (c *Context) Vector() bool {
	return c.w == vectorWidth
}

// Conversion returns a conversion from src to dst, installing the
// conversions of both spaces first if necessary.
func (c *Context) Conversion(src, dst Format) (*Conversion, bool) {
	c.ensure(src.Space)
	c.ensure(dst.Space)
	return c.Conversions.Lookup(src, dst)
}

func (c *Context) ensure(s *Space) {
	if s == nil {
		return
	}
	c.mu.Lock()
	done := c.adapted[s]
	c.mu.Unlock()
	if !done {
		c.InstallCrossSpaceConversions(s)
	}
}
