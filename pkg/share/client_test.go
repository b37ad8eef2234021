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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/GlucoLinkProject/glucolink-core/pkg/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShareTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		wt       string
		expected int64
		wantErr  bool
	}{
		{name: "plain milliseconds", wt: "/Date(1700000000000)/", expected: 1700000000},
		{name: "with offset suffix", wt: "/Date(1700000000000-0500)/", expected: 1700000000},
		{name: "garbage", wt: "/Date(soon)/", wantErr: true},
		{name: "empty", wt: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts, err := parseShareTime(tt.wt)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ts)
		})
	}
}

func TestLatestReadingsScalesUnits(t *testing.T) {
	t.Parallel()

	srv := helpers.NewShareServer(t)
	srv.SetReadings(
		helpers.ShareValue{MGDL: 180.182, Unix: 1700000300},
		helpers.ShareValue{MGDL: 95, Unix: 1700000000},
	)

	client := NewClient(srv.URL)
	session := NewSessionManager(client, Credentials{Username: srv.Username, Password: srv.Password})
	require.NoError(t, session.Authenticate(context.Background()))

	mgdl, err := client.LatestReadings(context.Background(), session.SessionID(), 180, 36, glucose.UnitsMGDL)
	require.NoError(t, err)
	require.Len(t, mgdl, 2)
	assert.Equal(t, glucose.Reading{Value: 180, Timestamp: 1700000300}, mgdl[0])
	assert.Equal(t, glucose.Reading{Value: 95, Timestamp: 1700000000}, mgdl[1])

	mmol, err := client.LatestReadings(context.Background(), session.SessionID(), 180, 36, glucose.UnitsMMOL)
	require.NoError(t, err)
	require.Len(t, mmol, 2)
	assert.Equal(t, int16(100), mmol[0].Value)
}

func TestLatestReadingsHonorsMaxCount(t *testing.T) {
	t.Parallel()

	srv := helpers.NewShareServer(t)
	srv.SetReadings(
		helpers.ShareValue{MGDL: 110, Unix: 1700000600},
		helpers.ShareValue{MGDL: 105, Unix: 1700000300},
		helpers.ShareValue{MGDL: 100, Unix: 1700000000},
	)

	client := NewClient(srv.URL)
	session := NewSessionManager(client, Credentials{Username: srv.Username, Password: srv.Password})
	require.NoError(t, session.Authenticate(context.Background()))

	readings, err := client.LatestReadings(context.Background(), session.SessionID(), 15, 2, glucose.UnitsMGDL)
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestStaleSessionMapsToSessionInvalid(t *testing.T) {
	t.Parallel()

	srv := helpers.NewShareServer(t)
	client := NewClient(srv.URL)

	_, err := client.LatestReadings(context.Background(), "sess-stale", 180, 36, glucose.UnitsMGDL)
	require.ErrorIs(t, err, ErrSessionInvalid)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "SessionIdNotFound", remoteErr.Code)
}

func TestRemoteErrorOtherCodeIsNotSessionInvalid(t *testing.T) {
	t.Parallel()

	err := &RemoteError{Code: "ServerMaintenance", Message: "down"}
	assert.NotErrorIs(t, err, ErrSessionInvalid)

	err = &RemoteError{Code: "SessionNotValid", Message: "expired"}
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestPostRejectsUnparseableErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	_, err := client.LatestReadings(context.Background(), "sess", 180, 36, glucose.UnitsMGDL)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPostRejectsUnexpectedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	_, err := client.ResolveAccount(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionInvalid)
}
