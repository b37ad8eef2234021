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

// Package cache maintains the sliding window of retained readings between
// sync cycles: deduplicated by timestamp, ordered newest first, evicted
// past the retention window.
package cache

import (
	"sort"
	"time"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

// RetentionWindow is the maximum age of a retained reading.
const RetentionWindow = 3 * time.Hour

// Merge combines freshly fetched readings into the existing window.
// Incoming entries win timestamp collisions. The result is strictly
// descending by timestamp with no duplicates and nothing older than
// now minus RetentionWindow. Merge is deterministic and idempotent.
func Merge(existing, incoming []glucose.Reading, now time.Time) []glucose.Reading {
	byTime := make(map[int64]glucose.Reading, len(existing)+len(incoming))
	for _, r := range existing {
		byTime[r.Timestamp] = r
	}
	for _, r := range incoming {
		byTime[r.Timestamp] = r
	}

	cutoff := now.Add(-RetentionWindow).Unix()
	merged := make([]glucose.Reading, 0, len(byTime))
	for _, r := range byTime {
		if r.Timestamp < cutoff {
			continue
		}
		merged = append(merged, r)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})
	return merged
}

// Newest returns the most recent retained reading, or false when the
// window is empty.
func Newest(readings []glucose.Reading) (glucose.Reading, bool) {
	if len(readings) == 0 {
		return glucose.Reading{}, false
	}
	return readings[0], true
}
