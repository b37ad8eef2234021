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

// Package helpers provides shared test fixtures.
package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlucoLinkProject/glucolink-core/pkg/helpers/syncutil"
)

const sentinelToken = "00000000-0000-0000-0000-000000000000"

// ShareValue is one reading the fake service will serve: a raw mg/dL
// measurement at a unix-seconds timestamp.
type ShareValue struct {
	MGDL float64
	Unix int64
}

// ShareServer is an httptest stand-in for the remote share service. It
// honors the three-endpoint auth flow and lets tests expire sessions and
// inspect the windows clients asked for.
type ShareServer struct {
	*httptest.Server

	Username string
	Password string

	mu           syncutil.Mutex
	accountID    string
	sessionID    string
	sessionSeq   int
	rejectReads  bool
	readings     []ShareValue
	authCalls    int
	loginCalls   int
	readCalls    int
	lastMinutes  int
	lastMaxCount int
}

// NewShareServer starts a fake share service with one known account.
// It is shut down automatically when the test finishes.
func NewShareServer(t *testing.T) *ShareServer {
	t.Helper()

	s := &ShareServer{
		Username:   "alice",
		Password:   "hunter2",
		accountID:  "acct-0001",
		sessionID:  "sess-0001",
		sessionSeq: 1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/General/AuthenticatePublisherAccount", s.handleAuthenticate)
	mux.HandleFunc("/General/LoginPublisherAccountById", s.handleLogin)
	mux.HandleFunc("/Publisher/ReadPublisherLatestGlucoseValues", s.handleReadings)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)
	return s
}

// SetReadings replaces the readings the service serves, newest first.
func (s *ShareServer) SetReadings(values ...ShareValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = values
}

// ExpireSession invalidates the current session id. The next login call
// hands out a fresh one.
func (s *ShareServer) ExpireSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionSeq++
	s.sessionID = fmt.Sprintf("sess-%04d", s.sessionSeq)
}

// RejectReads makes every readings query report an invalid session even
// for freshly issued session ids.
func (s *ShareServer) RejectReads(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectReads = reject
}

// Calls reports how many times each endpoint was hit.
func (s *ShareServer) Calls() (auth, login, read int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authCalls, s.loginCalls, s.readCalls
}

// LastWindow reports the minutes and maxCount of the most recent readings
// query.
func (s *ShareServer) LastWindow() (minutes, maxCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMinutes, s.lastMaxCount
}

func writeToken(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(token)
}

func (s *ShareServer) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountName string `json:"accountName"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authCalls++
	if req.AccountName != s.Username || req.Password != s.Password {
		writeToken(w, sentinelToken)
		return
	}
	writeToken(w, s.accountID)
}

func (s *ShareServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"accountId"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginCalls++
	if req.AccountID != s.accountID || req.Password != s.Password {
		writeToken(w, sentinelToken)
		return
	}
	writeToken(w, s.sessionID)
}

func (s *ShareServer) handleReadings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Minutes   int    `json:"minutes"`
		MaxCount  int    `json:"maxCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCalls++

	if s.rejectReads || req.SessionID != s.sessionID {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Code":    "SessionIdNotFound",
			"Message": "session id not found",
		})
		return
	}

	s.lastMinutes = req.Minutes
	s.lastMaxCount = req.MaxCount

	type wireReading struct {
		WT    string  `json:"WT"`
		Value float64 `json:"Value"`
	}
	out := make([]wireReading, 0, len(s.readings))
	for _, v := range s.readings {
		if len(out) >= req.MaxCount {
			break
		}
		out = append(out, wireReading{
			WT:    fmt.Sprintf("/Date(%d)/", v.Unix*1000),
			Value: v.MGDL,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
