/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

type responseRequest struct {
	Response Vote `json:"response"`
}

type responseCount struct {
	ID    string `json:"_id"`
	Count int    `json:"count"`
}

// API talks to the vote backend. Requests are attempted exactly once.
type API struct {
	baseURL string
	client  *pester.Client
}

func newAPI(baseURL string) *API {
	client := pester.NewExtendedClient(&http.Client{Timeout: timeout})
	client.Concurrency = 1
	client.MaxRetries = 1

	return &API{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Submit posts one vote. Any non-2xx status is an error.
func (a *API) Submit(ctx context.Context, v Vote) error {
	if !v.Valid() {
		return errors.Wrapf(ErrInvalidVote, "got %q", v)
	}

	body, err := json.Marshal(responseRequest{Response: v})
	if err != nil {
		return errors.Wrap(err, "encode vote")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/response", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build vote request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post vote")
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrapf(ErrUnexpectedStatus, "post vote: %s", resp.Status)
	}

	return nil
}

// FetchTally reads the backend's aggregate counts. Answers the backend has
// no group for count as zero.
func (a *API) FetchTally(ctx context.Context) (Tally, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/responses", nil)
	if err != nil {
		return Tally{}, errors.Wrap(err, "build tally request")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Tally{}, errors.Wrap(err, "get tally")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Tally{}, errors.Wrapf(ErrUnexpectedStatus, "get tally: %s", resp.Status)
	}

	var counts []responseCount
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		return Tally{}, errors.Wrap(err, "decode tally")
	}

	var t Tally
	for _, c := range counts {
		switch Vote(c.ID) {
		case Yes:
			t.Yes = c.Count
		case No:
			t.No = c.Count
		}
	}

	return t, nil
}
