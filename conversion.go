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

import "sync"

// Conversion is an edge of the conversion graph: a kernel which converts
// pixels from one format to another.
type Conversion struct {
	Source      Format
	Destination Format
	Kernel      Kernel
}

func (c *Conversion) String() string {
	return c.Source.String() + " -> " + c.Destination.String() + " (" + c.Kernel.Name() + ")"
}

type formatPair struct {
	src, dst Format
}

// ConversionTable holds the conversions installed so far.  For every
// ordered pair of formats it keeps the list of candidate kernels in the
// order they were added; different kernels may compete for the same pair.
//
// A ConversionTable is safe for concurrent use.
type ConversionTable struct {
	mu    sync.RWMutex
	pairs map[formatPair][]*Conversion
	order []*Conversion
}

// NewConversionTable returns an empty table.
func NewConversionTable() *ConversionTable {
	return &ConversionTable{
		pairs: make(map[formatPair][]*Conversion),
	}
}

// Add installs a kernel for converting src to dst.  If a kernel with the
// same name is already installed for this pair, the existing conversion is
// returned and added is false.
func (t *ConversionTable) Add(src, dst Format, k Kernel) (conv *Conversion, added bool) {
	return t.addLazy(src, dst, k.Name(), func() Kernel { return k })
}

// addLazy is like Add, but only calls build if the conversion is not yet
// present.
func (t *ConversionTable) addLazy(src, dst Format, name string, build func() Kernel) (*Conversion, bool) {
	key := formatPair{src, dst}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.pairs[key] {
		if c.Kernel.Name() == name {
			return c, false
		}
	}
	c := &Conversion{Source: src, Destination: dst, Kernel: build()}
	t.pairs[key] = append(t.pairs[key], c)
	t.order = append(t.order, c)
	return c, true
}

// Lookup returns the first conversion installed for the pair (src, dst).
func (t *ConversionTable) Lookup(src, dst Format) (*Conversion, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cands := t.pairs[formatPair{src, dst}]
	if len(cands) == 0 {
		return nil, false
	}
	return cands[0], true
}

// Candidates returns all conversions installed for the pair (src, dst).
func (t *ConversionTable) Candidates(src, dst Format) []*Conversion {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cands := t.pairs[formatPair{src, dst}]
	res := make([]*Conversion, len(cands))
	copy(res, cands)
	return res
}

// Len returns the total number of installed conversions.
func (t *ConversionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Each calls fn for every installed conversion, in installation order,
// until fn returns false.
func (t *ConversionTable) Each(fn func(*Conversion) bool) {
	t.mu.RLock()
	all := make([]*Conversion, len(t.order))
	copy(all, t.order)
	t.mu.RUnlock()

	for _, c := range all {
		if !fn(c) {
			return
		}
	}
}
