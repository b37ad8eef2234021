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

import "github.com/GlucoLinkProject/glucolink-core/pkg/glucose"

const (
	// ScalePadding is added above and below the data extremes, in stored
	// value units.
	ScalePadding = 10

	// MinVisibleRange prevents a degenerate flat line when glucose is
	// stable: the scale is expanded symmetrically to at least this width.
	MinVisibleRange = 30

	// maxDynamicLines caps how many step-sequence grid lines may fall
	// inside the scaled range.
	maxDynamicLines = 3

	// thresholdSuppressFraction suppresses a dynamic grid line that falls
	// within this fraction of the range of a clinical threshold line.
	thresholdSuppressFraction = 0.05
)

// Grid step candidates per unit system, in stored value units, ascending.
var (
	stepsMGDL = []int{25, 50, 100, 200}
	stepsMMOL = []int{10, 20, 50, 100} // 1.0, 2.0, 5.0, 10.0 mmol/L
)

// Clinical threshold boundaries per unit system, in stored value units.
var (
	thresholdsMGDL = []int16{72, 180}
	thresholdsMMOL = []int16{40, 100} // 4.0 and 10.0 mmol/L
)

// Scale is the value-axis window in stored units.
type Scale struct {
	Min int
	Max int
}

// Width returns the window width.
func (s Scale) Width() int {
	return s.Max - s.Min
}

// Contains reports whether a value falls inside the window.
func (s Scale) Contains(v int) bool {
	return v >= s.Min && v <= s.Max
}

// AutoScale computes the value window for a reading set: data extent plus
// fixed padding, expanded symmetrically about its midpoint to the minimum
// visible range when narrower. The result always contains every reading.
func AutoScale(readings []glucose.Reading) Scale {
	if len(readings) == 0 {
		return Scale{Min: 0, Max: MinVisibleRange}
	}

	dataMin := int(readings[0].Value)
	dataMax := int(readings[0].Value)
	for _, r := range readings[1:] {
		if int(r.Value) < dataMin {
			dataMin = int(r.Value)
		}
		if int(r.Value) > dataMax {
			dataMax = int(r.Value)
		}
	}

	s := Scale{Min: dataMin - ScalePadding, Max: dataMax + ScalePadding}
	if s.Width() < MinVisibleRange {
		mid := (s.Min + s.Max) / 2
		s.Min = mid - MinVisibleRange/2
		s.Max = s.Min + MinVisibleRange
	}
	return s
}

// Thresholds returns the clinical low/high boundary values for a unit
// system.
func Thresholds(units string) []int16 {
	if units == glucose.UnitsMMOL {
		return thresholdsMMOL
	}
	return thresholdsMGDL
}

// GridStep picks the smallest candidate step that puts no more than
// maxDynamicLines lines inside the scale. Falls back to the coarsest
// candidate when all of them are too dense.
func GridStep(s Scale, units string) int {
	candidates := stepsMGDL
	if units == glucose.UnitsMMOL {
		candidates = stepsMMOL
	}

	for _, step := range candidates {
		if len(GridLines(s, step)) <= maxDynamicLines {
			return step
		}
	}
	return candidates[len(candidates)-1]
}

// GridLines returns the multiples of step inside the scale, ascending.
func GridLines(s Scale, step int) []int {
	var lines []int
	first := (s.Min/step + 1) * step
	if s.Min >= 0 && s.Min%step == 0 {
		first = s.Min
	}
	for v := first; v <= s.Max; v += step {
		lines = append(lines, v)
	}
	return lines
}

// SuppressNearThreshold reports whether a dynamic grid line sits close
// enough to a clinical threshold line that drawing both would smear them
// together visually.
func SuppressNearThreshold(s Scale, value int, units string) bool {
	limit := float64(s.Width()) * thresholdSuppressFraction
	for _, t := range Thresholds(units) {
		if !s.Contains(int(t)) {
			continue
		}
		if diff := float64(value - int(t)); diff < limit && diff > -limit {
			return true
		}
	}
	return false
}
