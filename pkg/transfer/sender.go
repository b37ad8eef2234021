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

package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/GlucoLinkProject/glucolink-core/pkg/wire"
)

const (
	// MessageAttempts is the per-message delivery budget: the first try
	// plus two retries.
	MessageAttempts = 3

	// RetryDelay is the fixed pause between attempts of the same message.
	RetryDelay = 500 * time.Millisecond
)

// ErrSendFailure marks a cycle aborted after a message exhausted its
// delivery budget. The next scheduled cycle resends from scratch with a
// fresh header.
var ErrSendFailure = errors.New("message delivery failed")

// Sender implements the app-to-device half of the delivery protocol:
// header first, then encoded chunks strictly in increasing start-index
// order with exactly one message in flight.
type Sender struct {
	channel Channel
	clock   clockwork.Clock
}

// NewSender creates a sender over the given channel.
func NewSender(channel Channel, clock clockwork.Clock) *Sender {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sender{channel: channel, clock: clock}
}

// Send delivers the reading set for one cycle. The header resets the
// receiver's buffer before any payload arrives, so stale slots from a
// prior cycle can never leak into this one. Delivery is at-least-once per
// chunk; replays are idempotent on the receiver.
func (s *Sender) Send(ctx context.Context, readings []glucose.Reading, units string) error {
	cycle := uuid.New().String()
	logger := log.With().Str("cycle", cycle).Logger()

	header := wire.Envelope{
		Type:   wire.TypeHeader,
		ID:     uuid.New().String(),
		Header: &wire.Header{Count: len(readings), Units: units},
	}
	if err := s.deliver(ctx, header); err != nil {
		return fmt.Errorf("header delivery: %w", err)
	}

	encoded := wire.Encode(readings)
	chunkSize := s.chunkSize()

	for offset := 0; offset < len(encoded); offset += chunkSize {
		end := offset + chunkSize
		if end > len(encoded) {
			end = len(encoded)
		}

		startIndex := offset / wire.RecordSize
		chunk := wire.Envelope{
			Type: wire.TypeChunk,
			ID:   uuid.New().String(),
			Chunk: &wire.Chunk{
				StartIndex: startIndex,
				Payload:    encoded[offset:end],
			},
		}

		if err := s.deliver(ctx, chunk); err != nil {
			// Remaining chunks are not attempted; the receiver keeps its
			// partial buffer until the next cycle's header resets it.
			logger.Error().Err(err).Int("startIndex", startIndex).Msg("aborting transfer")
			return fmt.Errorf("chunk %d delivery: %w", startIndex, err)
		}
	}

	logger.Debug().Int("count", len(readings)).Msg("transfer complete")
	return nil
}

// chunkSize is the channel's payload cap floored to a whole number of
// records so no record straddles a chunk boundary.
func (s *Sender) chunkSize() int {
	size := s.channel.MaxPayload() - s.channel.MaxPayload()%wire.RecordSize
	if size < wire.RecordSize {
		size = wire.RecordSize
	}
	return size
}

// deliver sends one message, retrying the identical message up to
// MessageAttempts with a fixed delay between attempts.
func (s *Sender) deliver(ctx context.Context, env wire.Envelope) error {
	var lastErr error
	for attempt := 1; attempt <= MessageAttempts; attempt++ {
		lastErr = s.channel.Send(ctx, env)
		if lastErr == nil {
			return nil
		}

		log.Warn().
			Err(lastErr).
			Str("type", env.Type).
			Int("attempt", attempt).
			Msg("message delivery failed")

		if attempt == MessageAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("delivery cancelled: %w", ctx.Err())
		case <-s.clock.After(RetryDelay):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrSendFailure, MessageAttempts, lastErr)
}
