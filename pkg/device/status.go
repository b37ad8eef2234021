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

package device

import (
	"fmt"
	"time"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

// StatusLine renders the one-line summary shown under the chart:
// "12 readings, 3m ago" with data, "No data" without.
func StatusLine(readings []glucose.Reading, now time.Time) string {
	if len(readings) == 0 {
		return "No data"
	}
	minutesAgo := int(readings[0].Age(now).Minutes())
	return fmt.Sprintf("%d readings, %dm ago", len(readings), minutesAgo)
}
