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

// Package chart renders the reconstructed reading buffer as an
// auto-scaled time/value chart on a monochrome canvas.
package chart

// Rect is a pixel-space rectangle.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Align positions text horizontally within its box.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Canvas is the drawing surface the renderer targets. Implementations are
// monochrome: SetPixel inks, ClearCircle erases back to the background.
type Canvas interface {
	Bounds() Rect
	SetPixel(x, y int)
	DrawLine(x0, y0, x1, y1 int)
	FillCircle(cx, cy, r int)
	ClearCircle(cx, cy, r int)
	DrawText(text string, box Rect, align Align)
}
