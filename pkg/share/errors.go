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
	"errors"
	"fmt"
)

// Failure classes surfaced by the share client. InvalidCredentials and
// LoginFailed are fatal and never retried; SessionInvalid is retried by the
// fetcher within its re-authentication bound; everything else fails the
// current cycle and is retried naturally by the next scheduled one.
var (
	ErrInvalidCredentials = errors.New("remote rejected account credentials")
	ErrLoginFailed        = errors.New("remote rejected session login")
	ErrSessionInvalid     = errors.New("remote session is no longer valid")
	ErrMalformedResponse  = errors.New("malformed remote response")
)

// RemoteError is an application-level failure reported by the share
// service: HTTP 500 with a JSON {Code, Message} body.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %s: %s", e.Code, e.Message)
}

// sessionInvalidCodes are the remote error codes that mean the session id
// has expired or been revoked and a re-authentication should be attempted.
var sessionInvalidCodes = map[string]bool{
	"SessionNotValid":   true,
	"SessionIdNotFound": true,
}

// Unwrap maps session-invalidity codes onto ErrSessionInvalid so callers
// can classify with errors.Is. Any other code is terminal for the cycle.
func (e *RemoteError) Unwrap() error {
	if sessionInvalidCodes[e.Code] {
		return ErrSessionInvalid
	}
	return nil
}
