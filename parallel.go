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

import "github.com/alitto/pond"

// DefaultChunk is the number of pixels per task used by [ConvertParallel]
// when no chunk size is given.
const DefaultChunk = 16 * 1024

// ConvertParallel converts n pixels from src to dst, splitting the buffer
// into chunks of the given number of pixels and running them on pool.
// It returns once all chunks are done.  Chunks are multiples of 4 pixels,
// so that every chunk of a 16-byte aligned buffer starts aligned.
//
// src and dst must not overlap unless they are the same slice.
func ConvertParallel(pool *pond.WorkerPool, k FloatKernel, comps int, dst, src []float32, n, chunk int) int {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	chunk = (chunk + 3) &^ 3
	if n <= chunk {
		return k.ConvertFloat(dst, src, n)
	}

	group := pool.Group()
	for start := 0; start < n; start += chunk {
		m := min(chunk, n-start)
		s := src[start*comps : (start+m)*comps]
		d := dst[start*comps : (start+m)*comps]
		group.Submit(func() {
			k.ConvertFloat(d, s, m)
		})
	}
	group.Wait()
	return n
}
