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
	"encoding/json"
	"errors"
	"fmt"
)

// Message types carried in the envelope. The channel transport acknowledges
// each bridge-to-device message with an ack envelope echoing its ID, which
// gives the sender the per-message delivery confirmation the protocol's
// ordering rules depend on.
const (
	TypeRequest = "request"
	TypeHeader  = "header"
	TypeChunk   = "chunk"
	TypeRecord  = "record"
	TypeAck     = "ack"
)

var ErrUnknownMessage = errors.New("unknown message type")

// Header announces a new delivery cycle: the total reading count and the
// active unit label. Receipt must reset the device buffer.
type Header struct {
	Units string `json:"units"`
	Count int    `json:"count"`
}

// Chunk carries a slice of the encoded record stream. Payload length is
// always a multiple of RecordSize; StartIndex is the logical slot of the
// first record.
type Chunk struct {
	Payload    []byte `json:"payload"`
	StartIndex int    `json:"startIndex"`
}

// Record is the legacy low-bandwidth path: one reading per message.
type Record struct {
	Timestamp int64 `json:"timestamp"`
	Index     int   `json:"index"`
	Value     int16 `json:"value"`
}

// Envelope is the JSON frame sent over the channel. Exactly one of the
// typed fields is set, matching Type. ID correlates acks with the message
// they acknowledge; it is empty on device-originated messages.
type Envelope struct {
	Header *Header `json:"header,omitempty"`
	Chunk  *Chunk  `json:"chunk,omitempty"`
	Record *Record `json:"record,omitempty"`
	Type   string  `json:"type"`
	ID     string  `json:"id,omitempty"`
	AckID  string  `json:"ackId,omitempty"`
}

// MarshalMessage frames an envelope for the channel.
func MarshalMessage(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", env.Type, err)
	}
	return data, nil
}

// UnmarshalMessage parses a channel frame, rejecting envelopes whose type
// is unknown or whose typed field is missing.
func UnmarshalMessage(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal message: %w", err)
	}

	switch env.Type {
	case TypeRequest, TypeAck:
	case TypeHeader:
		if env.Header == nil {
			return Envelope{}, errors.New("header message missing header body")
		}
	case TypeChunk:
		if env.Chunk == nil {
			return Envelope{}, errors.New("chunk message missing chunk body")
		}
	case TypeRecord:
		if env.Record == nil {
			return Envelope{}, errors.New("record message missing record body")
		}
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}

	return env, nil
}
