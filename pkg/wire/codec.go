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

// Package wire implements the compact binary record encoding and the
// channel message envelopes exchanged between the bridge and the device.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

// RecordSize is the fixed width of one encoded reading: a little-endian
// int16 value followed by a little-endian uint32 unix timestamp.
const RecordSize = 6

var (
	ErrMisalignedPayload = errors.New("payload length is not a multiple of the record size")
	ErrNegativeIndex     = errors.New("negative start index")
)

// SlotReading pairs a decoded reading with the logical buffer slot it
// belongs to.
type SlotReading struct {
	Slot    int
	Reading glucose.Reading
}

// Encode serializes readings into the fixed-width record stream, preserving
// input order. There is no length prefix; the record count is implied by
// len(result) / RecordSize.
func Encode(readings []glucose.Reading) []byte {
	out := make([]byte, 0, len(readings)*RecordSize)
	for _, r := range readings {
		var rec [RecordSize]byte
		binary.LittleEndian.PutUint16(rec[0:2], uint16(r.Value))
		binary.LittleEndian.PutUint32(rec[2:6], uint32(r.Timestamp))
		out = append(out, rec[:]...)
	}
	return out
}

// Decode is the inverse of Encode. Each record is assigned the slot
// startIndex+i. It rejects payloads whose length is not a multiple of
// RecordSize rather than silently truncating.
func Decode(payload []byte, startIndex int) ([]SlotReading, error) {
	if startIndex < 0 {
		return nil, fmt.Errorf("decode chunk at %d: %w", startIndex, ErrNegativeIndex)
	}
	if len(payload)%RecordSize != 0 {
		return nil, fmt.Errorf("decode %d bytes: %w", len(payload), ErrMisalignedPayload)
	}

	out := make([]SlotReading, 0, len(payload)/RecordSize)
	for off := 0; off < len(payload); off += RecordSize {
		value := int16(binary.LittleEndian.Uint16(payload[off : off+2]))
		ts := binary.LittleEndian.Uint32(payload[off+2 : off+6])
		out = append(out, SlotReading{
			Slot: startIndex + len(out),
			Reading: glucose.Reading{
				Value:     value,
				Timestamp: int64(ts),
			},
		})
	}
	return out, nil
}
