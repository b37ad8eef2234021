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

// Package share talks to the remote CGM share service: account and session
// resolution, and the windowed latest-readings query the sync pipeline is
// built around.
package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
)

const (
	// RequestTimeout bounds every remote call.
	RequestTimeout = 15 * time.Second

	// SentinelToken is the well-known all-zero token the service returns
	// in place of a real account or session id when credentials are bad.
	// It must never be stored as a valid token.
	SentinelToken = "00000000-0000-0000-0000-000000000000"

	pathAuthenticate = "General/AuthenticatePublisherAccount"
	pathLogin        = "General/LoginPublisherAccountById"
	pathReadings     = "Publisher/ReadPublisherLatestGlucoseValues"

	// applicationID identifies this client family to the share service.
	applicationID = "d89443d2-327c-4a6f-89e5-496bbb0317db"
)

// TokenResult is the outcome of a token-resolution call. It separates
// "got a token" from "the service explicitly signalled an invalid token";
// transport failures are reported through the error return instead.
type TokenResult struct {
	Token   string
	Invalid bool
}

// Client is the HTTP client for the share service. It is owned by the
// sync actor and not safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a share client for the given service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: RequestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// post issues a JSON POST and returns the raw success body. HTTP 500 with
// a {Code, Message} body becomes a RemoteError; anything else unexpected
// is a transport-class failure.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusInternalServerError:
		var remoteErr RemoteError
		if err := json.Unmarshal(data, &remoteErr); err != nil || remoteErr.Code == "" {
			return nil, fmt.Errorf("%w: unparseable error body from %s", ErrMalformedResponse, path)
		}
		return nil, &remoteErr
	default:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
}

// token parses a quoted opaque token response and flags the sentinel.
func token(data []byte) (TokenResult, error) {
	var tok string
	if err := json.Unmarshal(data, &tok); err != nil {
		return TokenResult{}, fmt.Errorf("%w: expected quoted token", ErrMalformedResponse)
	}
	return TokenResult{Token: tok, Invalid: tok == SentinelToken}, nil
}

// ResolveAccount exchanges account credentials for an account id.
func (c *Client) ResolveAccount(ctx context.Context, username, password string) (TokenResult, error) {
	data, err := c.post(ctx, pathAuthenticate, map[string]string{
		"accountName":   username,
		"password":      password,
		"applicationId": applicationID,
	})
	if err != nil {
		return TokenResult{}, err
	}
	return token(data)
}

// Login exchanges an account id for a session id.
func (c *Client) Login(ctx context.Context, accountID, password string) (TokenResult, error) {
	data, err := c.post(ctx, pathLogin, map[string]string{
		"accountId":     accountID,
		"password":      password,
		"applicationId": applicationID,
	})
	if err != nil {
		return TokenResult{}, err
	}
	return token(data)
}

// shareReading is the remote wire shape of one glucose sample.
type shareReading struct {
	WT    string  `json:"WT"`
	Value float64 `json:"Value"`
}

// parseShareTime parses the service's "/Date(1700000000000)/" millisecond
// timestamp format.
func parseShareTime(wt string) (int64, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(wt, "/Date("), ")/")
	// Some deployments append a timezone offset after the milliseconds.
	if i := strings.IndexAny(trimmed, "+-"); i > 0 {
		trimmed = trimmed[:i]
	}
	ms, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad timestamp %q", ErrMalformedResponse, wt)
	}
	return ms / 1000, nil
}

// LatestReadings queries up to maxCount readings from the last minutes
// minutes, scaled into the given display units, newest first.
func (c *Client) LatestReadings(
	ctx context.Context,
	sessionID string,
	minutes int,
	maxCount int,
	units string,
) ([]glucose.Reading, error) {
	data, err := c.post(ctx, pathReadings, map[string]any{
		"sessionId": sessionID,
		"minutes":   minutes,
		"maxCount":  maxCount,
	})
	if err != nil {
		return nil, err
	}

	var raw []shareReading
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: expected readings array", ErrMalformedResponse)
	}

	readings := make([]glucose.Reading, 0, len(raw))
	for _, r := range raw {
		ts, err := parseShareTime(r.WT)
		if err != nil {
			return nil, err
		}
		readings = append(readings, glucose.Reading{
			Value:     glucose.ScaleValue(r.Value, units),
			Timestamp: ts,
		})
	}
	return readings, nil
}
