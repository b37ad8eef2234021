// GlucoLink Core
// Copyright (c) 2026 The GlucoLink Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GlucoLink Core.
//
// GlucoLink Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GlucoLink Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GlucoLink Core.  If not, see <http://www.gnu.org/licenses/>.

package chart

import "strings"

// TextOp records a text draw for assertions and terminal overlay.
type TextOp struct {
	Text  string
	Box   Rect
	Align Align
}

// Raster is an in-memory monochrome canvas sized like the device display.
// It backs the renderer tests and the terminal preview.
type Raster struct {
	Texts  []TextOp
	pixels []bool
	width  int
	height int
}

// NewRaster creates a cleared raster canvas.
func NewRaster(width, height int) *Raster {
	return &Raster{
		width:  width,
		height: height,
		pixels: make([]bool, width*height),
	}
}

// Bounds implements Canvas.
func (r *Raster) Bounds() Rect {
	return Rect{W: r.width, H: r.height}
}

func (r *Raster) in(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// Pixel reports whether a pixel is inked. Out-of-bounds reads are blank.
func (r *Raster) Pixel(x, y int) bool {
	return r.in(x, y) && r.pixels[y*r.width+x]
}

// SetPixel implements Canvas. Out-of-bounds writes are dropped.
func (r *Raster) SetPixel(x, y int) {
	if r.in(x, y) {
		r.pixels[y*r.width+x] = true
	}
}

func (r *Raster) clearPixel(x, y int) {
	if r.in(x, y) {
		r.pixels[y*r.width+x] = false
	}
}

// DrawLine implements Canvas with Bresenham's algorithm.
func (r *Raster) DrawLine(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		r.SetPixel(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// FillCircle implements Canvas.
func (r *Raster) FillCircle(cx, cy, radius int) {
	r.circle(cx, cy, radius, r.SetPixel)
}

// ClearCircle implements Canvas, erasing back to background. Used for the
// hollow extremum markers.
func (r *Raster) ClearCircle(cx, cy, radius int) {
	r.circle(cx, cy, radius, r.clearPixel)
}

func (r *Raster) circle(cx, cy, radius int, plot func(x, y int)) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				plot(cx+dx, cy+dy)
			}
		}
	}
}

// DrawText implements Canvas by recording the op. The raster has no font;
// String overlays the characters for the terminal preview.
func (r *Raster) DrawText(text string, box Rect, align Align) {
	r.Texts = append(r.Texts, TextOp{Text: text, Box: box, Align: align})
}

// String renders the raster as terminal lines, one character per pixel,
// with recorded text overlaid at its box position.
func (r *Raster) String() string {
	rows := make([][]rune, r.height)
	for y := range rows {
		rows[y] = make([]rune, r.width)
		for x := range rows[y] {
			if r.Pixel(x, y) {
				rows[y][x] = '#'
			} else {
				rows[y][x] = ' '
			}
		}
	}

	for _, op := range r.Texts {
		for i, line := range strings.Split(op.Text, "\n") {
			y := op.Box.Y + i
			if y < 0 || y >= r.height {
				continue
			}
			x := op.Box.X
			switch op.Align {
			case AlignCenter:
				x += (op.Box.W - len(line)) / 2
			case AlignRight:
				x += op.Box.W - len(line)
			case AlignLeft:
			}
			for j, ch := range line {
				if r.in(x+j, y) {
					rows[y][x+j] = ch
				}
			}
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
