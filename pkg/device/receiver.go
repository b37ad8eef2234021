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

	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/GlucoLinkProject/glucolink-core/pkg/wire"
)

// CompleteFunc is called exactly once per completed cycle with the
// published reading set and active units.
type CompleteFunc func(readings []glucose.Reading, units string)

// Receiver is the channel consumer state machine. It owns the buffer; a
// header message unconditionally supersedes any in-flight cycle. A
// malformed message is dropped without disturbing buffer state.
type Receiver struct {
	onComplete CompleteFunc
	buffer     Buffer
	published  []glucose.Reading
}

// NewReceiver creates a receiver. onComplete may be nil.
func NewReceiver(onComplete CompleteFunc) *Receiver {
	return &Receiver{onComplete: onComplete}
}

// Buffer exposes the reconstruction state for status reporting.
func (r *Receiver) Buffer() *Buffer {
	return &r.buffer
}

// Readings returns the most recently published complete reading set.
func (r *Receiver) Readings() []glucose.Reading {
	return r.published
}

// Handle processes one channel message. Unknown or malformed messages are
// rejected with an error and otherwise ignored; the actor survives.
func (r *Receiver) Handle(env wire.Envelope) error {
	switch env.Type {
	case wire.TypeHeader:
		r.buffer.Reset(env.Header.Count, env.Header.Units)
		log.Debug().
			Int("count", env.Header.Count).
			Str("units", env.Header.Units).
			Msg("cycle reset")
		r.maybePublish()
		return nil

	case wire.TypeChunk:
		decoded, err := wire.Decode(env.Chunk.Payload, env.Chunk.StartIndex)
		if err != nil {
			return fmt.Errorf("dropping chunk: %w", err)
		}
		for _, sr := range decoded {
			if err := r.buffer.Set(sr.Slot, sr.Reading); err != nil {
				// Slots past capacity are dropped, matching the header's
				// clamped expected count.
				log.Warn().Int("slot", sr.Slot).Msg("dropping out-of-range record")
			}
		}
		r.maybePublish()
		return nil

	case wire.TypeRecord:
		rec := env.Record
		err := r.buffer.Set(rec.Index, glucose.Reading{
			Value:     rec.Value,
			Timestamp: rec.Timestamp,
		})
		if err != nil {
			return fmt.Errorf("dropping record: %w", err)
		}
		r.maybePublish()
		return nil

	default:
		return fmt.Errorf("%w: %q", wire.ErrUnknownMessage, env.Type)
	}
}

// maybePublish fires the completion callback the first time the buffer
// fills for this cycle.
func (r *Receiver) maybePublish() {
	if !r.buffer.markComplete() {
		return
	}
	r.published = r.buffer.Readings()
	log.Info().Int("count", len(r.published)).Msg("cycle complete")
	if r.onComplete != nil {
		r.onComplete(r.published, r.buffer.Units())
	}
}
