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
	"log/slog"
	"math"
	"sync"
)

// DefaultCapacity is the number of spaces a [Registry] holds by default.
const DefaultCapacity = 100

// ErrRegistryExhausted is returned when a space is registered in a full
// [Registry].  The spaces registered earlier remain usable.
var ErrRegistryExhausted = errors.New("colorspace: too many colour spaces")

var errMissingTRC = errors.New("colorspace: missing red TRC")

// Registry is a bounded, append-only table of colour spaces.
//
// Spaces are deduplicated by their defining parameters (primaries or
// matrix, white point and the three TRCs): registering a space a second
// time returns the entry created first, even if the new registration uses
// a different name.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	spaces   []*Space
	byKey    map[spaceKey]*Space
	logger   *slog.Logger
}

// NewRegistry returns an empty registry which can hold up to capacity
// spaces.  If capacity is not positive, [DefaultCapacity] is used.
// A nil logger is replaced by [slog.Default].
func NewRegistry(capacity int, logger *slog.Logger) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		capacity: capacity,
		byKey:    make(map[spaceKey]*Space),
		logger:   logger,
	}
}

// RegisterFromChromaticities returns the space with the given white point,
// primaries and tone response curves, creating it if needed.
//
// If trcGreen or trcBlue is nil, trcRed is used for that channel.  If name is
// empty, a name is synthesized from the parameters.
func (r *Registry) RegisterFromChromaticities(name string, white, red, green, blue Chromaticity, trcRed, trcGreen, trcBlue TRC) (*Space, error) {
	trc, err := trcTriple(trcRed, trcGreen, trcBlue)
	if err != nil {
		return nil, err
	}
	key := spaceKey{
		origin:     fromChromaticities,
		params:     [9]float64{red.X, red.Y, green.X, green.Y, blue.X, blue.Y, white.X, white.Y},
		whitePoint: white.XYZ(),
		trc:        trc,
	}
	return r.register(name, key, func() (*Space, error) {
		return newSpaceFromChromaticities(white, red, green, blue, trc)
	})
}

// RegisterFromMatrix returns the space with the given white point (in XYZ),
// RGB to XYZ matrix and tone response curves, creating it if needed.  The
// matrix is used as given, it must already be adapted to D50.  This is the
// form in which matrix/TRC ICC profiles describe a space.
//
// If trcGreen or trcBlue is nil, trcRed is used for that channel.  If name is
// empty, a name is synthesized from the parameters.
func (r *Registry) RegisterFromMatrix(name string, white Vector3, rgbToXYZ Matrix3, trcRed, trcGreen, trcBlue TRC) (*Space, error) {
	trc, err := trcTriple(trcRed, trcGreen, trcBlue)
	if err != nil {
		return nil, err
	}
	key := spaceKey{
		origin:     fromMatrix,
		params:     rgbToXYZ,
		whitePoint: white,
		trc:        trc,
	}
	return r.register(name, key, func() (*Space, error) {
		return newSpaceFromMatrix(white, rgbToXYZ, trc)
	})
}

func trcTriple(red, green, blue TRC) ([3]TRC, error) {
	if red == nil {
		return [3]TRC{}, errMissingTRC
	}
	if green == nil {
		green = red
	}
	if blue == nil {
		blue = red
	}
	return [3]TRC{red, green, blue}, nil
}

func (r *Registry) register(name string, key spaceKey, create func() (*Space, error)) (*Space, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byKey[key]; ok {
		return s, nil
	}
	if len(r.spaces) >= r.capacity {
		r.logger.Warn("colour space registry is full",
			"capacity", r.capacity, "name", name)
		return nil, ErrRegistryExhausted
	}

	s, err := create()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = s.synthesizeName()
	}
	s.name = name

	r.spaces = append(r.spaces, s)
	r.byKey[key] = s
	r.logger.Debug("registered colour space", "name", name, "index", len(r.spaces)-1)
	return s, nil
}

// Lookup returns the first registered space with the given name.
func (r *Registry) Lookup(name string) (*Space, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.spaces {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// ForEach calls fn for all registered spaces, in registration order, until
// fn returns false.  Spaces registered by fn are not visited.
func (r *Registry) ForEach(fn func(*Space) bool) {
	for _, s := range r.Spaces() {
		if !fn(s) {
			return
		}
	}
}

// Spaces returns a snapshot of all registered spaces, in registration
// order.
func (r *Registry) Spaces() []*Space {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*Space, len(r.spaces))
	copy(res, r.spaces)
	return res
}

// Len returns the number of registered spaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spaces)
}

// Cap returns the maximal number of spaces the registry can hold.
func (r *Registry) Cap() int {
	return r.capacity
}

// MatchTRCMatrix returns the first registered space which uses exactly the
// given curves and whose RGB to XYZ matrix agrees with m to within 0.001 in
// every entry.  It returns nil if there is no such space.
//
// This is used to recognise well-known spaces in ICC profiles, where the
// matrix is only stored with limited precision.
func (r *Registry) MatchTRCMatrix(trc [3]TRC, m Matrix3) *Space {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.spaces {
		if s.trc != trc {
			continue
		}
		if matrixClose(s.rgbToXYZ, m, 0.001) {
			return s
		}
	}
	return nil
}

func matrixClose(a, b Matrix3, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) >= eps {
			return false
		}
	}
	return true
}

// registerBuiltins adds the reference spaces every context starts with.
func registerBuiltins(r *Registry) error {
	builtins := []struct {
		name       string
		white      Chromaticity
		red, green Chromaticity
		blue       Chromaticity
		trc        string
	}{
		{"sRGB", D65, Chromaticity{0.6400, 0.3300}, Chromaticity{0.3000, 0.6000}, Chromaticity{0.1500, 0.0600}, "sRGB"},
		{"Adobe", D65, Chromaticity{0.6400, 0.3300}, Chromaticity{0.2100, 0.7100}, Chromaticity{0.1500, 0.0600}, "2.2"},
		{"ProPhoto", D50, Chromaticity{0.7347, 0.2653}, Chromaticity{0.1596, 0.8404}, Chromaticity{0.0366, 0.0001}, "1.8"},
		{"Apple", D65, Chromaticity{0.6250, 0.3400}, Chromaticity{0.2800, 0.5950}, Chromaticity{0.1550, 0.0700}, "1.8"},
		{"WideGamutRGB", D50, Chromaticity{0.7350, 0.2650}, Chromaticity{0.1150, 0.8260}, Chromaticity{0.1570, 0.0180}, "2.2"},
	}
	for _, b := range builtins {
		_, err := r.RegisterFromChromaticities(b.name, b.white, b.red, b.green, b.blue, mustTRC(b.trc), nil, nil)
		if err != nil {
			return err
		}
	}
	return nil
}
