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

// Package service runs the sync actor: the single goroutine that owns the
// reading cache and session state and drives fetch, merge, persist, and
// send cycles.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/api"
	"github.com/GlucoLinkProject/glucolink-core/pkg/cache"
	"github.com/GlucoLinkProject/glucolink-core/pkg/config"
	"github.com/GlucoLinkProject/glucolink-core/pkg/database"
	"github.com/GlucoLinkProject/glucolink-core/pkg/device"
	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/GlucoLinkProject/glucolink-core/pkg/helpers/syncutil"
	"github.com/GlucoLinkProject/glucolink-core/pkg/share"
	"github.com/GlucoLinkProject/glucolink-core/pkg/transfer"
)

// SyncContext is the sync actor's exclusively owned mutable state. It is
// only ever touched from the Run goroutine.
type SyncContext struct {
	readings []glucose.Reading
}

// snapshot is the cross-goroutine view published for the status resource.
type snapshot struct {
	lastSync  time.Time
	lastError string
	readings  int
	newestAge time.Duration
}

// Service wires the sync pipeline together.
type Service struct {
	cfg      *config.Instance
	db       *database.Database
	session  *share.SessionManager
	fetcher  *share.Fetcher
	sender   *transfer.Sender
	clock    clockwork.Clock
	requests <-chan struct{}
	sctx     SyncContext
	snap     snapshot
	snapMu   syncutil.RWMutex
}

// New assembles the sync actor. requests carries device-initiated sync
// triggers (from the API channel).
func New(
	cfg *config.Instance,
	db *database.Database,
	session *share.SessionManager,
	fetcher *share.Fetcher,
	sender *transfer.Sender,
	clock clockwork.Clock,
	requests <-chan struct{},
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		cfg:      cfg,
		db:       db,
		session:  session,
		fetcher:  fetcher,
		sender:   sender,
		clock:    clock,
		requests: requests,
	}
}

// restore seeds actor state from the persisted store. A merge against an
// empty incoming set re-applies retention to stale persisted readings.
func (s *Service) restore() {
	persisted := s.db.LoadReadings()
	s.sctx.readings = cache.Merge(persisted, nil, s.clock.Now())

	sess := s.db.LoadSession()
	s.session.Restore(sess.AccountID, sess.SessionID)
	log.Info().
		Int("readings", len(s.sctx.readings)).
		Stringer("session", s.session.State()).
		Msg("restored persisted state")
}

// Run is the actor loop. Cycles are triggered by the periodic tick and by
// device requests, never concurrently: the loop serializes them.
func (s *Service) Run(ctx context.Context) error {
	s.restore()

	ticker := s.clock.NewTicker(s.cfg.SyncInterval())
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sync actor stopping")
			return nil
		case <-ticker.Chan():
			s.runCycle(ctx)
		case <-s.requests:
			s.runCycle(ctx)
		}
	}
}

// runCycle performs one fetch → merge → persist → send cycle. A failure
// anywhere leaves the cache and prior delivered data intact; the next
// cycle starts from scratch.
func (s *Service) runCycle(ctx context.Context) {
	incoming, err := s.fetcher.Fetch(ctx, s.sctx.readings)
	if err != nil {
		s.finishCycle(err)
		return
	}

	now := s.clock.Now()
	s.sctx.readings = cache.Merge(s.sctx.readings, incoming, now)

	if err := s.db.SaveReadings(s.sctx.readings); err != nil {
		log.Error().Err(err).Msg("failed to persist readings")
	}
	accountID, sessionID := s.session.Tokens()
	if err := s.db.SaveSession(database.Session{
		AccountID: accountID,
		SessionID: sessionID,
	}); err != nil {
		log.Error().Err(err).Msg("failed to persist session")
	}

	toSend := s.sctx.readings
	if len(toSend) > device.Capacity {
		toSend = toSend[:device.Capacity]
	}

	err = s.sender.Send(ctx, toSend, s.cfg.Units())
	if err != nil && errors.Is(err, transfer.ErrNoDevice) {
		// Not a failure: the cache is warm for whenever a device appears.
		log.Debug().Msg("no device connected, skipping delivery")
		err = nil
	}
	s.finishCycle(err)
}

// finishCycle logs the outcome per failure class and publishes the
// status snapshot.
func (s *Service) finishCycle(err error) {
	switch {
	case err == nil:
	case errors.Is(err, share.ErrInvalidCredentials), errors.Is(err, share.ErrLoginFailed):
		// Fatal class: retrying cannot help until credentials change.
		log.Error().Err(err).Msg("authentication rejected, check credentials")
	case errors.Is(err, transfer.ErrSendFailure):
		log.Error().Err(err).Msg("delivery aborted for this cycle")
	default:
		log.Warn().Err(err).Msg("sync cycle failed")
	}

	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	s.snap.readings = len(s.sctx.readings)
	s.snap.newestAge = 0
	if newest, ok := cache.Newest(s.sctx.readings); ok {
		s.snap.newestAge = newest.Age(s.clock.Now())
	}
	if err != nil {
		s.snap.lastError = err.Error()
	} else {
		s.snap.lastError = ""
		s.snap.lastSync = s.clock.Now()
	}
}

// Status implements the bridge status resource.
func (s *Service) Status() api.Status {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()

	st := api.Status{
		Units:         s.cfg.Units(),
		Readings:      s.snap.readings,
		NewestAgeSecs: int(s.snap.newestAge.Seconds()),
		LastError:     s.snap.lastError,
	}
	if !s.snap.lastSync.IsZero() {
		st.LastSync = s.snap.lastSync.Format(time.RFC3339)
	}
	return st
}
