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

// Package mocks provides shared test doubles.
package mocks

import (
	"context"
	"errors"

	"github.com/GlucoLinkProject/glucolink-core/pkg/helpers/syncutil"
	"github.com/GlucoLinkProject/glucolink-core/pkg/wire"
)

// MockChannel is a transfer.Channel test double. FailFirst configures how
// many leading Send attempts fail before deliveries start succeeding, and
// FailFrom (1-based, 0 disabled) makes that attempt and every later one
// fail. SendErr, when set, fails every attempt with that exact error.
// Every attempt, failed or not, is recorded in Attempts. Configure
// failure modes before handing the mock to a sender.
type MockChannel struct {
	SendErr    error
	Delivered  []wire.Envelope
	Attempts   []wire.Envelope
	FailFirst  int
	FailFrom   int
	maxPayload int
	mu         syncutil.Mutex
}

// NewMockChannel creates a mock channel with the given payload cap.
func NewMockChannel(maxPayload int) *MockChannel {
	return &MockChannel{maxPayload: maxPayload}
}

// Send implements transfer.Channel.
func (m *MockChannel) Send(_ context.Context, env wire.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Attempts = append(m.Attempts, env)
	if m.SendErr != nil {
		return m.SendErr
	}
	if m.FailFirst > 0 {
		m.FailFirst--
		return errors.New("simulated delivery failure")
	}
	if m.FailFrom > 0 && len(m.Attempts) >= m.FailFrom {
		return errors.New("simulated delivery failure")
	}
	m.Delivered = append(m.Delivered, env)
	return nil
}

// MaxPayload implements transfer.Channel.
func (m *MockChannel) MaxPayload() int {
	return m.maxPayload
}

// DeliveredTypes returns the message types in delivery order.
func (m *MockChannel) DeliveredTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, 0, len(m.Delivered))
	for _, env := range m.Delivered {
		types = append(types, env.Type)
	}
	return types
}
