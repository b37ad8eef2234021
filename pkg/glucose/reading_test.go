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

package glucose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScaleValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		units    string
		mgdl     float64
		expected int16
	}{
		{name: "mgdl passes through", units: UnitsMGDL, mgdl: 120, expected: 120},
		{name: "mgdl rounds", units: UnitsMGDL, mgdl: 120.6, expected: 121},
		{name: "mmol stored in tenths", units: UnitsMMOL, mgdl: 180.182, expected: 100},
		{name: "mmol rounds to nearest tenth", units: UnitsMMOL, mgdl: 100, expected: 55},
		{name: "huge value clamps", units: UnitsMGDL, mgdl: 1e9, expected: 32767},
		{name: "huge negative clamps", units: UnitsMGDL, mgdl: -1e9, expected: -32768},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ScaleValue(tt.mgdl, tt.units))
		})
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "120", FormatValue(120, UnitsMGDL))
	assert.Equal(t, "5.6", FormatValue(56, UnitsMMOL))
	assert.Equal(t, "10.0", FormatValue(100, UnitsMMOL))
}

func TestReadingAge(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000600, 0)
	r := Reading{Timestamp: 1700000000, Value: 95}

	assert.Equal(t, 10*time.Minute, r.Age(now))
	assert.Equal(t, time.Unix(1700000000, 0), r.Time())
}

func TestReadingAgeFromFuture(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	r := Reading{Timestamp: 1700000300}

	assert.Negative(t, r.Age(now))
}
