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

package cache

import (
	"testing"
	"time"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const base = int64(1700000000)

func at(offset time.Duration, value int16) glucose.Reading {
	return glucose.Reading{Timestamp: base + int64(offset.Seconds()), Value: value}
}

func TestMergeIncomingWinsCollision(t *testing.T) {
	t.Parallel()

	now := time.Unix(base+600, 0)
	existing := []glucose.Reading{at(5*time.Minute, 110), at(0, 100)}
	incoming := []glucose.Reading{at(10*time.Minute, 120), at(5*time.Minute, 115)}

	merged := Merge(existing, incoming, now)

	require.Len(t, merged, 3)
	assert.Equal(t, at(10*time.Minute, 120), merged[0])
	assert.Equal(t, at(5*time.Minute, 115), merged[1])
	assert.Equal(t, at(0, 100), merged[2])
}

func TestMergeEvictsPastRetention(t *testing.T) {
	t.Parallel()

	now := time.Unix(base, 0).Add(RetentionWindow + time.Minute)
	existing := []glucose.Reading{at(0, 100)}
	incoming := []glucose.Reading{at(RetentionWindow, 130)}

	merged := Merge(existing, incoming, now)

	require.Len(t, merged, 1)
	assert.Equal(t, at(RetentionWindow, 130), merged[0])
}

func TestMergeKeepsReadingExactlyAtCutoff(t *testing.T) {
	t.Parallel()

	now := time.Unix(base, 0).Add(RetentionWindow)
	merged := Merge([]glucose.Reading{at(0, 100)}, nil, now)

	require.Len(t, merged, 1)
}

func TestMergeEmptyInputs(t *testing.T) {
	t.Parallel()

	now := time.Unix(base, 0)
	assert.Empty(t, Merge(nil, nil, now))

	merged := Merge(nil, []glucose.Reading{at(0, 100)}, now)
	require.Len(t, merged, 1)
}

func TestNewest(t *testing.T) {
	t.Parallel()

	_, ok := Newest(nil)
	assert.False(t, ok)

	merged := Merge(nil, []glucose.Reading{at(0, 100), at(5*time.Minute, 105)}, time.Unix(base+600, 0))
	newest, ok := Newest(merged)
	require.True(t, ok)
	assert.Equal(t, at(5*time.Minute, 105), newest)
}

func TestPropertyMergeIdempotent(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(base, 0)
		count := rapid.IntRange(0, 40).Draw(t, "count")

		incoming := make([]glucose.Reading, 0, count)
		for i := 0; i < count; i++ {
			incoming = append(incoming, glucose.Reading{
				Timestamp: base - int64(rapid.IntRange(0, 4*60*60).Draw(t, "age")),
				Value:     int16(rapid.IntRange(40, 400).Draw(t, "value")),
			})
		}

		once := Merge(nil, incoming, now)
		twice := Merge(once, incoming, now)
		if len(once) != len(twice) {
			t.Fatalf("merge not idempotent: %d then %d readings", len(once), len(twice))
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Fatalf("reading %d changed on re-merge: %+v != %+v", i, once[i], twice[i])
			}
		}
	})
}

func TestPropertyMergeOrderedAndBounded(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		now := time.Unix(base, 0)
		cutoff := now.Add(-RetentionWindow).Unix()

		gen := func(label string, n int) []glucose.Reading {
			out := make([]glucose.Reading, 0, n)
			for i := 0; i < n; i++ {
				out = append(out, glucose.Reading{
					Timestamp: base - int64(rapid.IntRange(0, 5*60*60).Draw(t, label)),
					Value:     int16(rapid.IntRange(40, 400).Draw(t, label+"Value")),
				})
			}
			return out
		}

		existing := gen("existingAge", rapid.IntRange(0, 30).Draw(t, "existingCount"))
		incoming := gen("incomingAge", rapid.IntRange(0, 30).Draw(t, "incomingCount"))

		merged := Merge(existing, incoming, now)
		for i, r := range merged {
			if r.Timestamp < cutoff {
				t.Fatalf("reading %d older than retention window", i)
			}
			if i > 0 && merged[i-1].Timestamp <= r.Timestamp {
				t.Fatalf("readings not strictly descending at %d", i)
			}
		}
	})
}
