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

// Package device implements the receiving side of the delivery protocol:
// the fixed-capacity reading buffer and the message state machine that
// reconstructs it.
package device

import (
	"errors"
	"fmt"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

// Capacity is the maximum number of displayable readings, sized to the
// device's chart area.
const Capacity = 36

// ErrSlotOutOfRange rejects writes outside [0, Capacity).
var ErrSlotOutOfRange = errors.New("slot index out of range")

// Buffer is the fixed-capacity reconstruction target for one delivery
// cycle. Received slots are tracked individually so a replayed chunk
// overwrites in place instead of double-counting.
type Buffer struct {
	units     string
	slots     [Capacity]glucose.Reading
	filled    [Capacity]bool
	expected  int
	received  int
	complete  bool
	receiving bool
}

// Reset starts a new cycle: all slots cleared, counts zeroed, expected
// count clamped to capacity. Any in-flight prior cycle is discarded.
func (b *Buffer) Reset(count int, units string) {
	if count > Capacity {
		count = Capacity
	}
	if count < 0 {
		count = 0
	}
	b.slots = [Capacity]glucose.Reading{}
	b.filled = [Capacity]bool{}
	b.expected = count
	b.received = 0
	b.complete = false
	b.receiving = true
	if units != "" {
		b.units = units
	}
}

// Set writes a reading into a slot. Writing an already-filled slot
// replaces its value without advancing the received count.
func (b *Buffer) Set(slot int, r glucose.Reading) error {
	if slot < 0 || slot >= Capacity {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if !b.filled[slot] {
		b.filled[slot] = true
		b.received++
	}
	b.slots[slot] = r
	return nil
}

// Complete reports whether every expected slot has arrived.
func (b *Buffer) Complete() bool {
	return b.complete
}

// Receiving reports whether a cycle is in flight and not yet complete.
func (b *Buffer) Receiving() bool {
	return b.receiving && !b.complete
}

// Expected returns the announced reading count for the current cycle.
func (b *Buffer) Expected() int {
	return b.expected
}

// Received returns the number of distinct slots filled so far.
func (b *Buffer) Received() int {
	return b.received
}

// Units returns the active unit label.
func (b *Buffer) Units() string {
	if b.units == "" {
		return glucose.UnitsMGDL
	}
	return b.units
}

// markComplete latches completion. It returns true only on the first call
// per cycle, so duplicate deliveries after completion cannot re-trigger a
// render.
func (b *Buffer) markComplete() bool {
	if b.complete || b.received < b.expected || !b.receiving {
		return false
	}
	b.complete = true
	b.receiving = false
	return true
}

// Readings returns the first expected-count slots, newest first. Only
// valid once the cycle is complete.
func (b *Buffer) Readings() []glucose.Reading {
	out := make([]glucose.Reading, b.expected)
	copy(out, b.slots[:b.expected])
	return out
}
