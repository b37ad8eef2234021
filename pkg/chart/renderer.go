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

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

// Chart area layout, sized for a 144x168 display with a status bar.
const (
	chartStartX = 30 // left margin for time labels
	chartStartY = 10 // top margin
	chartWidth  = 114
	chartHeight = 134
	gridPadding = 2 // keeps edge data points unclipped

	// timeSpacing is vertical pixels per nominal sample interval.
	timeSpacing = 4

	// Dotted-line pattern: dotOn pixels drawn, dotOff skipped.
	dotOn     = 2
	dotOff    = 3
	dotPeriod = dotOn + dotOff

	// timeGridSamples spaces the horizontal time grid: 6 samples = 30 min.
	timeGridSamples = 6

	// chartSamples is the displayable sample span, matching the device
	// buffer capacity.
	chartSamples = 36

	labelW = 30
	labelH = 16

	// labelOffset is the gap between a data point and its extremum label.
	labelOffset = 4
)

// GapThreshold is the largest real-time gap between consecutive samples
// that still gets a connecting line segment. Two missed sampling intervals
// means a dropout, and drawing across it would imply interpolated data.
const GapThreshold = 2 * glucose.SampleInterval

// Renderer draws the reading buffer onto a canvas. The clock supplies
// "now" for elapsed-time positioning.
type Renderer struct {
	clock clockwork.Clock
}

// NewRenderer creates a renderer.
func NewRenderer(clock clockwork.Clock) *Renderer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Renderer{clock: clock}
}

// Render draws the full chart: value grid, time grid, glucose line with
// gap suppression, and extremum labels. With no readings it draws a
// placeholder distinguishing an in-flight receive from genuinely no data.
func (r *Renderer) Render(c Canvas, readings []glucose.Reading, units string, receiving bool) {
	if len(readings) == 0 {
		drawPlaceholder(c, receiving)
		return
	}

	scale := AutoScale(readings)
	now := r.clock.Now()

	drawValueGrid(c, scale, units)
	drawTimeGrid(c, now)
	drawGlucoseLine(c, readings, scale, now)
	drawExtremaLabels(c, readings, scale, units, now)
}

// drawPlaceholder shows "Loading" while a receive cycle is in progress
// and the no-data hint otherwise.
func drawPlaceholder(c Canvas, receiving bool) {
	b := c.Bounds()
	if receiving {
		c.DrawText("Loading...", Rect{X: 0, Y: 60, W: b.W, H: 30}, AlignCenter)
		return
	}
	c.DrawText("No data\nOpen settings\non phone", Rect{X: 0, Y: 50, W: b.W, H: 70}, AlignCenter)
}

// valueToX maps a stored value to an x coordinate within the padded chart
// area. Lower values map left.
func valueToX(value int, s Scale) int {
	usable := chartWidth - 2*gridPadding
	return chartStartX + gridPadding + (value-s.Min)*usable/s.Width()
}

// timeToY maps a timestamp to a y coordinate: now at the bottom, older
// samples higher, timeSpacing pixels per nominal sample interval.
func timeToY(ts int64, now time.Time) int {
	secondsAgo := int(now.Unix() - ts)
	offset := secondsAgo * timeSpacing / int(glucose.SampleInterval.Seconds())
	return chartStartY + chartHeight - gridPadding - offset
}

func clampX(x int) int {
	lo := chartStartX + gridPadding
	hi := chartStartX + chartWidth - gridPadding
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func xInBounds(x int) bool {
	return x >= chartStartX+gridPadding && x <= chartStartX+chartWidth-gridPadding
}

func yInBounds(y int) bool {
	return y >= chartStartY && y <= chartStartY+chartHeight
}

// drawDottedVLine draws a vertical dotted line: dotOn pixels inked, then
// dotOff skipped.
func drawDottedVLine(c Canvas, x, yStart, yEnd int) {
	for y := yStart; y <= yEnd; y++ {
		if (y-yStart)%dotPeriod < dotOn {
			c.SetPixel(x, y)
		}
	}
}

func drawDottedHLine(c Canvas, y, xStart, xEnd int) {
	for x := xStart; x <= xEnd; x++ {
		if (x-xStart)%dotPeriod < dotOn {
			c.SetPixel(x, y)
		}
	}
}

// drawValueGrid draws the vertical value-reference lines with labels at
// the bottom: the dynamic step sequence dotted, the clinical threshold
// boundaries solid. Dynamic lines that crowd a threshold are suppressed.
func drawValueGrid(c Canvas, s Scale, units string) {
	yTop := chartStartY + gridPadding
	yBot := chartStartY + chartHeight - gridPadding

	step := GridStep(s, units)
	for _, v := range GridLines(s, step) {
		if SuppressNearThreshold(s, v, units) {
			continue
		}
		x := valueToX(v, s)
		if !xInBounds(x) {
			continue
		}
		drawDottedVLine(c, x, yTop, yBot)
		drawGridLabel(c, v, s, units)
	}

	// Threshold lines are drawn solid even when they fall outside the
	// dynamic step sequence.
	for _, t := range Thresholds(units) {
		if !s.Contains(int(t)) {
			continue
		}
		x := valueToX(int(t), s)
		if !xInBounds(x) {
			continue
		}
		c.DrawLine(x, yTop, x, yBot)
		drawGridLabel(c, int(t), s, units)
	}
}

func drawGridLabel(c Canvas, value int, s Scale, units string) {
	x := valueToX(value, s)
	if !xInBounds(x) {
		return
	}
	label := glucose.FormatValue(int16(value), units)
	c.DrawText(label, Rect{X: x - 15, Y: chartStartY + chartHeight, W: 30, H: 14}, AlignCenter)
}

// drawTimeGrid draws a horizontal line per timeGridSamples, positioned by
// elapsed time from now rather than array index, so dropouts do not skew
// the grid.
func drawTimeGrid(c Canvas, now time.Time) {
	interval := int(glucose.SampleInterval.Minutes())
	for slot := 0; slot <= chartSamples; slot += timeGridSamples {
		minutesAgo := slot * interval
		y := timeToY(now.Add(-time.Duration(minutesAgo)*time.Minute).Unix(), now)
		if !yInBounds(y) {
			continue
		}

		drawDottedHLine(c, y, chartStartX+gridPadding, chartStartX+chartWidth-gridPadding)

		// The bottom-left corner belongs to the value axis' origin label.
		if minutesAgo == 0 {
			continue
		}
		c.DrawText(timeLabel(minutesAgo), Rect{X: 0, Y: y - 7, W: 28, H: 14}, AlignRight)
	}
}

func timeLabel(minutesAgo int) string {
	switch {
	case minutesAgo == 30:
		return "30m"
	case minutesAgo%60 == 0:
		return fmt.Sprintf("%dh", minutesAgo/60)
	default:
		return fmt.Sprintf("%d.5h", minutesAgo/60)
	}
}

// drawGlucoseLine connects consecutive samples by recency, omitting the
// segment across any gap larger than GapThreshold, and dots each visible
// data point.
func drawGlucoseLine(c Canvas, readings []glucose.Reading, s Scale, now time.Time) {
	gapSeconds := int64(GapThreshold.Seconds())

	for i, cur := range readings {
		x := clampX(valueToX(int(cur.Value), s))
		y := timeToY(cur.Timestamp, now)

		if i < len(readings)-1 {
			next := readings[i+1]
			if cur.Timestamp-next.Timestamp <= gapSeconds {
				x2 := clampX(valueToX(int(next.Value), s))
				y2 := timeToY(next.Timestamp, now)
				c.DrawLine(x, y, x2, y2)
			}
		}

		if yInBounds(y) {
			c.FillCircle(x, y, 2)
		}
	}
}

// extremum locates the minimum or maximum reading.
func extremum(readings []glucose.Reading, wantMax bool) int {
	idx := 0
	for i, r := range readings[1:] {
		if (wantMax && r.Value > readings[idx].Value) ||
			(!wantMax && r.Value < readings[idx].Value) {
			idx = i + 1
		}
	}
	return idx
}

// drawExtremaLabels annotates the minimum and maximum points: each label
// is placed on the empty side of its point (min toward lower values, max
// toward higher), clamped to the chart, and the pair is pushed apart
// when their vertical extents overlap.
func drawExtremaLabels(c Canvas, readings []glucose.Reading, s Scale, units string, now time.Time) {
	minIdx := extremum(readings, false)
	maxIdx := extremum(readings, true)

	minVal := readings[minIdx].Value
	maxVal := readings[maxIdx].Value

	rightEdge := chartStartX + chartWidth

	minPX := clampX(valueToX(int(minVal), s))
	minPY := timeToY(readings[minIdx].Timestamp, now)
	maxPX := clampX(valueToX(int(maxVal), s))
	maxPY := timeToY(readings[maxIdx].Timestamp, now)

	// Min label toward the lower-value side (left), flipped when clipped.
	minLX := minPX - labelW - labelOffset
	if minLX < chartStartX {
		minLX = minPX + labelOffset
	}
	if minLX+labelW > rightEdge {
		minLX = rightEdge - labelW
	}
	minLY := minPY - labelH/2

	// Max label toward the higher-value side (right), flipped when clipped.
	maxLX := maxPX + labelOffset
	if maxLX+labelW > rightEdge {
		maxLX = maxPX - labelW - labelOffset
	}
	if maxLX < chartStartX {
		maxLX = chartStartX
	}
	maxLY := maxPY - labelH/2

	// Push the labels apart symmetrically when their vertical extents
	// overlap: the one whose anchor is higher moves up, the other down.
	if minLY < maxLY+labelH && maxLY < minLY+labelH {
		lowerTop := minLY
		if maxLY > lowerTop {
			lowerTop = maxLY
		}
		upperBot := minLY + labelH
		if maxLY+labelH < upperBot {
			upperBot = maxLY + labelH
		}
		half := (upperBot - lowerTop + 1) / 2

		if minPY < maxPY {
			minLY -= half
			maxLY += half
		} else {
			maxLY -= half
			minLY += half
		}
	}

	topLimit := chartStartY
	botLimit := chartStartY + chartHeight - labelH
	minLY = clampInt(minLY, topLimit, botLimit)
	maxLY = clampInt(maxLY, topLimit, botLimit)

	// Hollow markers at the extremum points.
	c.FillCircle(minPX, minPY, 6)
	c.FillCircle(maxPX, maxPY, 6)
	c.ClearCircle(minPX, minPY, 2)
	c.ClearCircle(maxPX, maxPY, 2)

	c.DrawText(glucose.FormatValue(minVal, units), Rect{X: minLX, Y: minLY, W: labelW, H: labelH}, AlignCenter)
	c.DrawText(glucose.FormatValue(maxVal, units), Rect{X: maxLX, Y: maxLY, W: labelW, H: labelH}, AlignCenter)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
