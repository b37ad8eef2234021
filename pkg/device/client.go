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
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/wire"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// Client is the device-side channel endpoint: it dials the bridge's
// websocket, feeds incoming messages to the receiver, and acknowledges
// each one after it has been applied. It runs as a single-threaded actor;
// the receiver is only ever touched from Run's goroutine.
type Client struct {
	receiver *Receiver
	addr     string
	path     string
}

// NewClient creates a device client for the bridge at addr (host:port).
func NewClient(addr, path string, receiver *Receiver) *Client {
	return &Client{receiver: receiver, addr: addr, path: path}
}

// Run connects and consumes messages until the context is cancelled or
// the connection drops. On connect it sends a request trigger so the
// bridge starts a delivery cycle immediately.
func (c *Client) Run(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: c.path}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial bridge %s: %w", u.String(), err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close websocket")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	if err := c.Request(conn); err != nil {
		return err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read from bridge failed: %w", err)
		}

		env, err := wire.UnmarshalMessage(data)
		if err != nil {
			// Malformed frame: drop it, stay alive.
			log.Warn().Err(err).Msg("dropping malformed message")
			continue
		}

		if err := c.receiver.Handle(env); err != nil {
			log.Warn().Err(err).Str("type", env.Type).Msg("message rejected")
		}

		// Acks confirm delivery of applied (or rejected-but-received)
		// messages so the bridge can release the next one in order.
		if env.ID != "" {
			if err := c.ack(conn, env.ID); err != nil {
				return err
			}
		}
	}
}

// Request sends the empty trigger message asking the bridge for a fresh
// delivery cycle.
func (c *Client) Request(conn *websocket.Conn) error {
	return c.write(conn, wire.Envelope{Type: wire.TypeRequest})
}

func (c *Client) ack(conn *websocket.Conn, id string) error {
	return c.write(conn, wire.Envelope{Type: wire.TypeAck, AckID: id})
}

func (c *Client) write(conn *websocket.Conn, env wire.Envelope) error {
	data, err := wire.MarshalMessage(env)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write %s message: %w", env.Type, err)
	}
	return nil
}
