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

package share

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// State is the session manager's authentication progress.
type State int

const (
	StateUnauthenticated State = iota
	StateAccountResolved
	StateSessionEstablished
)

func (s State) String() string {
	switch s {
	case StateAccountResolved:
		return "account-resolved"
	case StateSessionEstablished:
		return "session-established"
	default:
		return "unauthenticated"
	}
}

// Credentials is the share account login pair. Storage and entry UI live
// outside this package.
type Credentials struct {
	Username string
	Password string
}

// SessionManager owns the remote authentication tokens. It is exclusively
// owned by the sync actor: no internal locking. Authentication is
// idempotent and costs no network I/O once both tokens are held.
type SessionManager struct {
	client    *Client
	creds     Credentials
	accountID string
	sessionID string
}

// NewSessionManager creates a session manager around a share client.
func NewSessionManager(client *Client, creds Credentials) *SessionManager {
	return &SessionManager{client: client, creds: creds}
}

// Restore seeds the manager with persisted tokens. The sentinel token is
// never restorable; a corrupt store that held it reads back as empty.
func (m *SessionManager) Restore(accountID, sessionID string) {
	if accountID != SentinelToken {
		m.accountID = accountID
	}
	if sessionID != SentinelToken {
		m.sessionID = sessionID
	}
}

// State reports the current authentication progress.
func (m *SessionManager) State() State {
	switch {
	case m.sessionID != "":
		return StateSessionEstablished
	case m.accountID != "":
		return StateAccountResolved
	default:
		return StateUnauthenticated
	}
}

// SessionID returns the active session token, empty when not established.
func (m *SessionManager) SessionID() string {
	return m.sessionID
}

// Tokens returns both tokens for persistence.
func (m *SessionManager) Tokens() (accountID, sessionID string) {
	return m.accountID, m.sessionID
}

// Invalidate drops the session id after the remote reports it invalid,
// transitioning back to AccountResolved. The account id is kept; it does
// not expire with the session.
func (m *SessionManager) Invalidate() {
	m.sessionID = ""
}

// Authenticate resolves whichever tokens are missing, in order: account id
// first, then session id. A sentinel token from either step is fatal and
// nothing is stored. Transport failures surface unwrapped-retry decisions
// to the caller; this method never retries on its own.
func (m *SessionManager) Authenticate(ctx context.Context) error {
	if m.accountID == "" {
		res, err := m.client.ResolveAccount(ctx, m.creds.Username, m.creds.Password)
		if err != nil {
			return fmt.Errorf("account resolution failed: %w", err)
		}
		if res.Invalid {
			return ErrInvalidCredentials
		}
		m.accountID = res.Token
		log.Info().Msg("resolved share account id")
	}

	if m.sessionID == "" {
		res, err := m.client.Login(ctx, m.accountID, m.creds.Password)
		if err != nil {
			return fmt.Errorf("session login failed: %w", err)
		}
		if res.Invalid {
			return ErrLoginFailed
		}
		m.sessionID = res.Token
		log.Info().Msg("established share session")
	}

	return nil
}
