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

package config

import (
	"sync/atomic"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// CredentialEntry holds the share account login for a service URL.
// Credential entry and storage UI live outside this service; auth.toml is
// the exchange point.
type CredentialEntry struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Auth maps service URLs to credentials: [creds."https://…"] tables.
type Auth struct {
	Creds map[string]CredentialEntry `toml:"creds,omitempty"`
}

var authCfg atomic.Value

// GetAuthCfg returns the last loaded auth file contents.
func GetAuthCfg() Auth {
	val := authCfg.Load()
	if val == nil {
		return Auth{}
	}
	auth, ok := val.(Auth)
	if !ok {
		return Auth{}
	}
	return auth
}

// LookupAuth returns the credentials configured for a service URL.
func LookupAuth(url string) (CredentialEntry, bool) {
	entry, ok := GetAuthCfg().Creds[url]
	return entry, ok
}

// loadAuth parses auth.toml data and publishes it. A malformed file is
// logged and ignored rather than failing config load.
func loadAuth(data []byte) {
	var vals Auth
	if err := toml.Unmarshal(data, &vals); err != nil {
		log.Warn().Err(err).Msg("ignoring malformed auth file")
		return
	}
	log.Info().Msgf("loaded %d auth entries", len(vals.Creds))
	authCfg.Store(vals)
}
