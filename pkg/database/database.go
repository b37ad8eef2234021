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

// Package database persists the small amount of state that must survive
// restarts: the cached reading window and the last known session tokens.
// Corrupt or missing state always reads back as empty, never as an error.
package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

const (
	bucketSync   = "sync"
	keyReadings  = "readings"
	keySession   = "session"
	openTimeout  = 1 * time.Second
	fileModeUser = 0o600
)

// Session is the persisted form of the remote session tokens. Empty
// strings mean "not yet resolved".
type Session struct {
	AccountID string `json:"accountId"`
	SessionID string `json:"sessionId"`
}

// Database wraps the bolt store holding sync-side persisted state.
type Database struct {
	db *bolt.DB
}

// Open opens or creates the database file and ensures the sync bucket
// exists.
func Open(path string) (*Database, error) {
	db, err := bolt.Open(path, fileModeUser, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSync))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sync bucket: %w", err)
	}

	return &Database{db: db}, nil
}

// Close releases the underlying bolt file.
func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SaveReadings stores the retained reading window. Called after every
// successful merge.
func (d *Database) SaveReadings(readings []glucose.Reading) error {
	data, err := json.Marshal(readings)
	if err != nil {
		return fmt.Errorf("failed to marshal readings: %w", err)
	}
	err = d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSync)).Put([]byte(keyReadings), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save readings: %w", err)
	}
	return nil
}

// LoadReadings returns the persisted reading window. A missing or corrupt
// value is treated as an empty window.
func (d *Database) LoadReadings() []glucose.Reading {
	var readings []glucose.Reading
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketSync)).Get([]byte(keyReadings))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &readings); err != nil {
			log.Warn().Err(err).Msg("discarding corrupt persisted readings")
			readings = nil
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to load persisted readings")
		return nil
	}
	return readings
}

// SaveSession stores the remote session tokens. Called after every
// successful authentication step.
func (d *Database) SaveSession(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	err = d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSync)).Put([]byte(keySession), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted session tokens, or the zero Session
// when nothing usable is stored.
func (d *Database) LoadSession() Session {
	var s Session
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketSync)).Get([]byte(keySession))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &s); err != nil {
			log.Warn().Err(err).Msg("discarding corrupt persisted session")
			s = Session{}
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to load persisted session")
		return Session{}
	}
	return s
}
