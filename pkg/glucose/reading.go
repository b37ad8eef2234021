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

// Package glucose defines the core reading type shared by the sync and
// device sides of the pipeline.
package glucose

import (
	"fmt"
	"math"
	"time"
)

const (
	UnitsMGDL = "mg/dL"
	UnitsMMOL = "mmol/L"

	// MGDLPerMMOL converts between the two clinical unit systems.
	MGDLPerMMOL = 18.0182

	// SampleInterval is the nominal spacing between CGM samples.
	SampleInterval = 5 * time.Minute
)

// Reading is a single glucose sample. Value is stored in display units:
// whole mg/dL, or tenths of a mmol/L so one decimal place survives integer
// storage. Immutable once created.
type Reading struct {
	Timestamp int64 `json:"timestamp"`
	Value     int16 `json:"value"`
}

// Time returns the sample time as a time.Time.
func (r Reading) Time() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// Age returns how long ago the sample was taken relative to now. A sample
// from the future has a negative age.
func (r Reading) Age(now time.Time) time.Duration {
	return now.Sub(r.Time())
}

// ScaleValue converts a raw mg/dL measurement from the remote service into
// the stored integer representation for the given unit system.
func ScaleValue(mgdl float64, units string) int16 {
	v := mgdl
	if units == UnitsMMOL {
		v = mgdl / MGDLPerMMOL * 10
	}
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(v))
}

// FormatValue renders a stored value for display. mmol/L values carry one
// decimal place, mg/dL values are whole numbers.
func FormatValue(value int16, units string) string {
	if units == UnitsMMOL {
		whole := value / 10
		frac := value % 10
		if frac < 0 {
			frac = -frac
		}
		return fmt.Sprintf("%d.%d", whole, frac)
	}
	return fmt.Sprintf("%d", value)
}
