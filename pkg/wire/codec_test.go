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

package wire

import (
	"testing"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeKnownRecord(t *testing.T) {
	t.Parallel()

	// 1230 = 0x04C6 little-endian, 1700000000 = 0x6553F100 little-endian.
	data := Encode([]glucose.Reading{{Value: 1230, Timestamp: 1700000000}})

	assert.Equal(t, []byte{0xC6, 0x04, 0x00, 0xF1, 0x53, 0x65}, data)
}

func TestEncodePreservesOrder(t *testing.T) {
	t.Parallel()

	readings := []glucose.Reading{
		{Value: 180, Timestamp: 1700000600},
		{Value: 120, Timestamp: 1700000300},
		{Value: 95, Timestamp: 1700000000},
	}

	data := Encode(readings)
	require.Len(t, data, 3*RecordSize)

	decoded, err := Decode(data, 0)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, sr := range decoded {
		assert.Equal(t, i, sr.Slot)
		assert.Equal(t, readings[i], sr.Reading)
	}
}

func TestDecodeAppliesStartIndex(t *testing.T) {
	t.Parallel()

	data := Encode([]glucose.Reading{
		{Value: 100, Timestamp: 1700000000},
		{Value: 101, Timestamp: 1700000300},
	})

	decoded, err := Decode(data, 16)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, 16, decoded[0].Slot)
	assert.Equal(t, 17, decoded[1].Slot)
}

func TestDecodeRejectsMisalignedPayload(t *testing.T) {
	t.Parallel()

	_, err := Decode(make([]byte, RecordSize+1), 0)
	require.ErrorIs(t, err, ErrMisalignedPayload)
}

func TestDecodeRejectsNegativeIndex(t *testing.T) {
	t.Parallel()

	_, err := Decode(make([]byte, RecordSize), -1)
	require.ErrorIs(t, err, ErrNegativeIndex)
}

func TestDecodeEmptyPayload(t *testing.T) {
	t.Parallel()

	decoded, err := Decode(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestPropertyCodecRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(0, 48).Draw(t, "count")
		readings := make([]glucose.Reading, 0, count)
		for i := 0; i < count; i++ {
			readings = append(readings, glucose.Reading{
				Value:     int16(rapid.IntRange(-32768, 32767).Draw(t, "value")),
				Timestamp: int64(rapid.Uint32().Draw(t, "ts")),
			})
		}

		data := Encode(readings)
		if len(data) != count*RecordSize {
			t.Fatalf("expected %d bytes, got %d", count*RecordSize, len(data))
		}

		decoded, err := Decode(data, 0)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(decoded) != count {
			t.Fatalf("expected %d records, got %d", count, len(decoded))
		}
		for i, sr := range decoded {
			if sr.Reading != readings[i] {
				t.Fatalf("record %d mismatch: %+v != %+v", i, sr.Reading, readings[i])
			}
		}
	})
}
