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
	"testing"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/GlucoLinkProject/glucolink-core/pkg/testing/mocks"
	"github.com/GlucoLinkProject/glucolink-core/pkg/wire"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReadings(n int) []glucose.Reading {
	readings := make([]glucose.Reading, 0, n)
	for i := 0; i < n; i++ {
		readings = append(readings, glucose.Reading{
			Timestamp: 1700000000 + int64(i*300),
			Value:     int16(100 + i),
		})
	}
	return readings
}

// sendRetrying runs Send in the background and steps the fake clock
// through the given number of retry delays.
func sendRetrying(
	t *testing.T,
	sender *Sender,
	clock *clockwork.FakeClock,
	retries int,
	readings []glucose.Reading,
) error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sender.Send(context.Background(), readings, glucose.UnitsMGDL)
	}()
	for i := 0; i < retries; i++ {
		clock.BlockUntil(1)
		clock.Advance(RetryDelay)
	}
	return <-errCh
}

func TestSendHeaderFirstThenOrderedChunks(t *testing.T) {
	t.Parallel()

	// Two records per chunk.
	channel := mocks.NewMockChannel(2 * wire.RecordSize)
	sender := NewSender(channel, clockwork.NewFakeClock())

	require.NoError(t, sender.Send(context.Background(), testReadings(3), glucose.UnitsMGDL))

	require.Len(t, channel.Delivered, 3)
	assert.Equal(t, []string{wire.TypeHeader, wire.TypeChunk, wire.TypeChunk}, channel.DeliveredTypes())

	header := channel.Delivered[0]
	require.NotNil(t, header.Header)
	assert.Equal(t, 3, header.Header.Count)
	assert.Equal(t, glucose.UnitsMGDL, header.Header.Units)
	assert.NotEmpty(t, header.ID)

	first := channel.Delivered[1].Chunk
	second := channel.Delivered[2].Chunk
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, 0, first.StartIndex)
	assert.Len(t, first.Payload, 2*wire.RecordSize)
	assert.Equal(t, 2, second.StartIndex)
	assert.Len(t, second.Payload, wire.RecordSize)

	// Every message carries its own correlation id.
	assert.NotEqual(t, channel.Delivered[1].ID, channel.Delivered[2].ID)
}

func TestSendEmptySetIsHeaderOnly(t *testing.T) {
	t.Parallel()

	channel := mocks.NewMockChannel(96)
	sender := NewSender(channel, clockwork.NewFakeClock())

	require.NoError(t, sender.Send(context.Background(), nil, glucose.UnitsMMOL))

	require.Len(t, channel.Delivered, 1)
	assert.Equal(t, wire.TypeHeader, channel.Delivered[0].Type)
	assert.Zero(t, channel.Delivered[0].Header.Count)
}

func TestSendChunkSizeFloorsToWholeRecords(t *testing.T) {
	t.Parallel()

	// 7 bytes floors to one record per chunk.
	channel := mocks.NewMockChannel(wire.RecordSize + 1)
	sender := NewSender(channel, clockwork.NewFakeClock())

	require.NoError(t, sender.Send(context.Background(), testReadings(2), glucose.UnitsMGDL))

	require.Len(t, channel.Delivered, 3)
	assert.Len(t, channel.Delivered[1].Chunk.Payload, wire.RecordSize)
	assert.Len(t, channel.Delivered[2].Chunk.Payload, wire.RecordSize)
}

func TestSendRetriesIdenticalMessage(t *testing.T) {
	t.Parallel()

	channel := mocks.NewMockChannel(96)
	channel.FailFirst = 2
	clock := clockwork.NewFakeClock()
	sender := NewSender(channel, clock)

	err := sendRetrying(t, sender, clock, 2, testReadings(2))
	require.NoError(t, err)

	// Header failed twice, succeeded on the final attempt, then the chunk
	// went through first try.
	require.Len(t, channel.Attempts, 4)
	assert.Equal(t, channel.Attempts[0], channel.Attempts[1])
	assert.Equal(t, channel.Attempts[1], channel.Attempts[2])
	assert.Equal(t, wire.TypeHeader, channel.Attempts[2].Type)
	assert.Equal(t, wire.TypeChunk, channel.Attempts[3].Type)
}

func TestSendAbortsAfterAttemptBudget(t *testing.T) {
	t.Parallel()

	channel := mocks.NewMockChannel(96)
	channel.FailFirst = MessageAttempts
	clock := clockwork.NewFakeClock()
	sender := NewSender(channel, clock)

	err := sendRetrying(t, sender, clock, MessageAttempts-1, testReadings(2))
	require.ErrorIs(t, err, ErrSendFailure)

	// The header exhausted its budget; no chunk was ever attempted.
	assert.Len(t, channel.Attempts, MessageAttempts)
	assert.Empty(t, channel.Delivered)
}

func TestSendFailedChunkAbortsRemainder(t *testing.T) {
	t.Parallel()

	// One record per chunk; header and first chunk succeed, every attempt
	// after that fails, so chunk 1 exhausts its budget and chunk 2 is
	// never tried.
	channel := mocks.NewMockChannel(wire.RecordSize)
	channel.FailFrom = 3
	clock := clockwork.NewFakeClock()
	sender := NewSender(channel, clock)

	err := sendRetrying(t, sender, clock, MessageAttempts-1, testReadings(3))
	require.ErrorIs(t, err, ErrSendFailure)
	assert.Equal(t, []string{wire.TypeHeader, wire.TypeChunk}, channel.DeliveredTypes())
}

func TestSendCancelledDuringRetryWait(t *testing.T) {
	t.Parallel()

	channel := mocks.NewMockChannel(96)
	channel.FailFirst = 1 << 20
	sender := NewSender(channel, clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, testReadings(1), glucose.UnitsMGDL)
	require.ErrorIs(t, err, context.Canceled)
}
