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

// Package config loads and owns the bridge's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/GlucoLinkProject/glucolink-core/pkg/helpers/syncutil"
)

const (
	SchemaVersion = 1
	CfgEnv        = "GLUCOLINK_CFG"
	AuthEnv       = "GLUCOLINK_AUTH"

	CfgFile  = "config.toml"
	AuthFile = "auth.toml"
	LogFile  = "core.log"
	DBFile   = "sync.db"
)

// Values is the on-disk configuration shape.
type Values struct {
	Remote       Remote  `toml:"remote"`
	Sync         Sync    `toml:"sync,omitempty"`
	Channel      Channel `toml:"channel,omitempty"`
	API          API     `toml:"api,omitempty"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

// Remote configures the share service endpoint and display units.
type Remote struct {
	URL   string `toml:"url"`
	Units string `toml:"units"`
}

// Sync configures the periodic fetch cycle.
type Sync struct {
	IntervalMinutes int `toml:"interval_minutes,omitempty"`
}

// Channel configures the device message channel. MaxPayload is bounded by
// the device's inbox budget; a chunk payload never exceeds it.
type Channel struct {
	MaxPayload        int `toml:"max_payload,omitempty"`
	AckTimeoutSeconds int `toml:"ack_timeout_seconds,omitempty"`
}

// API configures the local bridge endpoint devices connect to.
type API struct {
	Port int `toml:"port,omitempty"`
}

// BaseDefaults is the configuration written on first run.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Remote: Remote{
		URL:   "https://shareous1.dexcom.com/ShareWebServices/Services",
		Units: glucose.UnitsMGDL,
	},
	Sync: Sync{
		IntervalMinutes: 5,
	},
	Channel: Channel{
		MaxPayload:        96,
		AckTimeoutSeconds: 5,
	},
	API: API{
		Port: 7420,
	},
}

// Instance is a thread-safe view over the loaded configuration.
type Instance struct {
	cfgPath  string
	authPath string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads the config file from configDir, creating it with the
// given defaults when missing.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	authPath := os.Getenv(AuthEnv)
	if authPath == "" {
		authPath = filepath.Join(filepath.Dir(cfgPath), AuthFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		authPath: authPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load re-reads the config and auth files from disk. File values overlay
// the defaults so absent fields keep their default.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals

	if _, err := os.Stat(c.authPath); err == nil {
		authData, err := os.ReadFile(c.authPath)
		if err != nil {
			return fmt.Errorf("failed to read auth file: %w", err)
		}
		loadAuth(authData)
	}

	return nil
}

// Save writes the current config values to disk.
func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) RemoteURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Remote.URL
}

// Units returns the configured display unit system, falling back to the
// default on an unrecognized value.
func (c *Instance) Units() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Remote.Units == glucose.UnitsMMOL {
		return glucose.UnitsMMOL
	}
	return glucose.UnitsMGDL
}

// SyncInterval returns the periodic fetch interval.
func (c *Instance) SyncInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	minutes := c.vals.Sync.IntervalMinutes
	if minutes <= 0 {
		minutes = BaseDefaults.Sync.IntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// ChunkPayloadMax returns the channel's maximum chunk payload in bytes.
func (c *Instance) ChunkPayloadMax() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Channel.MaxPayload <= 0 {
		return BaseDefaults.Channel.MaxPayload
	}
	return c.vals.Channel.MaxPayload
}

// AckTimeout returns how long a sent message waits for its delivery
// acknowledgment before the attempt is counted as failed.
func (c *Instance) AckTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seconds := c.vals.Channel.AckTimeoutSeconds
	if seconds <= 0 {
		seconds = BaseDefaults.Channel.AckTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.API.Port <= 0 {
		return BaseDefaults.API.Port
	}
	return c.vals.API.Port
}
