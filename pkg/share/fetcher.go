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
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

const (
	// DefaultWindowMinutes is the full-fetch request window used when the
	// cache is empty.
	DefaultWindowMinutes = 180

	// ReauthLimit bounds automatic re-authentications per fetch cycle.
	ReauthLimit = 2

	// minIncrementalMinutes floors the incremental window so clock drift
	// between host and service cannot produce an empty request.
	minIncrementalMinutes = 10

	// safetyMarginMinutes widens the incremental window to tolerate a
	// missed cycle.
	safetyMarginMinutes = 5
)

// Fetcher decides the fetch window from the cache contents and drives the
// windowed readings query, re-authenticating within a fixed bound when the
// remote reports the session invalid.
type Fetcher struct {
	client   *Client
	session  *SessionManager
	clock    clockwork.Clock
	units    string
	capacity int
}

// NewFetcher creates a fetcher. capacity is the device buffer capacity and
// caps every requested count.
func NewFetcher(
	client *Client,
	session *SessionManager,
	clock clockwork.Clock,
	capacity int,
	units string,
) *Fetcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Fetcher{
		client:   client,
		session:  session,
		clock:    clock,
		units:    units,
		capacity: capacity,
	}
}

// window computes the request window and count cap for the current cache
// contents. An empty cache gets the full default window; otherwise the
// window covers the span since the newest cached reading, floored and
// padded, which keeps the common one-new-sample payload small.
func (f *Fetcher) window(cached []glucose.Reading) (minutes, count int) {
	newest, ok := glucose.Reading{}, false
	if len(cached) > 0 {
		newest, ok = cached[0], true
	}

	if !ok {
		count = DefaultWindowMinutes / int(glucose.SampleInterval.Minutes())
		if count > f.capacity {
			count = f.capacity
		}
		return DefaultWindowMinutes, count
	}

	elapsed := f.clock.Now().Unix() - newest.Timestamp
	minutes = int((elapsed + 59) / 60)
	if minutes < minIncrementalMinutes {
		minutes = minIncrementalMinutes
	}
	minutes += safetyMarginMinutes

	count = (minutes+4)/5 + 1
	if count > f.capacity {
		count = f.capacity
	}
	return minutes, count
}

// Fetch authenticates as needed and queries new readings for the window
// implied by the cache. A session-invalid response triggers an automatic
// re-authentication and retry, at most ReauthLimit times per call; any
// other failure surfaces immediately.
func (f *Fetcher) Fetch(ctx context.Context, cached []glucose.Reading) ([]glucose.Reading, error) {
	minutes, count := f.window(cached)
	log.Debug().
		Int("minutes", minutes).
		Int("maxCount", count).
		Bool("full", len(cached) == 0).
		Msg("fetching readings")

	reauths := 0
	for {
		if err := f.session.Authenticate(ctx); err != nil {
			return nil, fmt.Errorf("fetch aborted: %w", err)
		}

		readings, err := f.client.LatestReadings(ctx, f.session.SessionID(), minutes, count, f.units)
		if err == nil {
			return readings, nil
		}

		if !errors.Is(err, ErrSessionInvalid) {
			return nil, fmt.Errorf("readings query failed: %w", err)
		}

		f.session.Invalidate()
		reauths++
		if reauths > ReauthLimit {
			return nil, fmt.Errorf("re-authentication limit reached: %w", err)
		}
		log.Warn().Int("attempt", reauths).Msg("session invalid, re-authenticating")
	}
}
