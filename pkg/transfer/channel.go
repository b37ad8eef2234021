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

// Package transfer drives the ordered, acknowledged, retry-bounded
// delivery of an encoded reading set over the device channel.
package transfer

import (
	"context"
	"errors"

	"github.com/GlucoLinkProject/glucolink-core/pkg/wire"
)

// ErrNoDevice is returned when no device is connected to the channel.
var ErrNoDevice = errors.New("no device connected")

// Channel is the message-oriented link to the device. Send blocks until
// the device acknowledges delivery of this specific message or the attempt
// fails; it never pipelines.
type Channel interface {
	// Send delivers one message and waits for its delivery
	// acknowledgment.
	Send(ctx context.Context, env wire.Envelope) error

	// MaxPayload is the largest chunk payload, in bytes, a single message
	// may carry on the receiver's constrained inbox.
	MaxPayload() int
}
