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

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/config"
	"github.com/GlucoLinkProject/glucolink-core/pkg/helpers/syncutil"
	"github.com/GlucoLinkProject/glucolink-core/pkg/transfer"
	"github.com/GlucoLinkProject/glucolink-core/pkg/wire"
)

// Channel is the websocket-backed device channel. Each bridge-to-device
// message waits for the device's ack envelope echoing its ID, giving the
// transfer protocol its per-message delivery confirmation. Exactly one
// device session is active at a time; a new connection supersedes the
// old one.
type Channel struct {
	instance  *config.Instance
	melody    *melody.Melody
	onRequest func()
	session   *melody.Session
	pending   map[string]chan struct{}
	mu        syncutil.Mutex
}

func newChannel(cfg *config.Instance, onRequest func()) *Channel {
	m := melody.New()

	c := &Channel{
		instance:  cfg,
		melody:    m,
		onRequest: onRequest,
		pending:   make(map[string]chan struct{}),
	}

	m.HandleConnect(func(s *melody.Session) {
		c.mu.Lock()
		if c.session != nil {
			log.Warn().Msg("new device connection supersedes existing session")
			_ = c.session.Close()
		}
		c.session = s
		c.mu.Unlock()
		log.Info().Str("remote", s.Request.RemoteAddr).Msg("device connected")
	})

	m.HandleDisconnect(func(s *melody.Session) {
		c.mu.Lock()
		if c.session == s {
			c.session = nil
		}
		c.mu.Unlock()
		log.Info().Msg("device disconnected")
	})

	m.HandleMessage(func(_ *melody.Session, data []byte) {
		env, err := wire.UnmarshalMessage(data)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed device message")
			return
		}

		switch env.Type {
		case wire.TypeAck:
			c.ack(env.AckID)
		case wire.TypeRequest:
			log.Debug().Msg("device requested sync")
			if c.onRequest != nil {
				c.onRequest()
			}
		default:
			log.Warn().Str("type", env.Type).Msg("unexpected device message")
		}
	})

	return c
}

// Connected reports whether a device session is active.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *Channel) ack(id string) {
	c.mu.Lock()
	waiter, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if ok {
		close(waiter)
	}
}

// Send implements transfer.Channel: write the framed envelope to the
// device session and block until its ack arrives or the ack timeout
// passes.
func (c *Channel) Send(ctx context.Context, env wire.Envelope) error {
	data, err := wire.MarshalMessage(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	session := c.session
	var waiter chan struct{}
	if env.ID != "" {
		waiter = make(chan struct{})
		c.pending[env.ID] = waiter
	}
	c.mu.Unlock()

	if session == nil {
		c.abandon(env.ID)
		return transfer.ErrNoDevice
	}

	if err := session.Write(data); err != nil {
		c.abandon(env.ID)
		return fmt.Errorf("write to device failed: %w", err)
	}

	if waiter == nil {
		return nil
	}

	timer := time.NewTimer(c.instance.AckTimeout())
	defer timer.Stop()

	select {
	case <-waiter:
		return nil
	case <-timer.C:
		c.abandon(env.ID)
		return fmt.Errorf("no ack for %s message within %s", env.Type, c.instance.AckTimeout())
	case <-ctx.Done():
		c.abandon(env.ID)
		return fmt.Errorf("send cancelled: %w", ctx.Err())
	}
}

func (c *Channel) abandon(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// MaxPayload implements transfer.Channel from the configured chunk budget.
func (c *Channel) MaxPayload() int {
	return c.instance.ChunkPayloadMax()
}
