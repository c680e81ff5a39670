/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	observable "github.com/GianlucaGuarini/go-observable"
	"github.com/pkg/errors"
)

const maxBodySize = 1 << 10

// BallotBox is the backend's in-memory record of every accepted vote. Each
// accepted vote is triggered as a "response" event on its bus.
type BallotBox struct {
	mu     sync.Mutex
	counts map[Vote]int

	bus *observable.Observable
}

func newBallotBox() *BallotBox {
	return &BallotBox{
		counts: make(map[Vote]int),
		bus:    observable.New(),
	}
}

func (b *BallotBox) Cast(v Vote) error {
	if !v.Valid() {
		return errors.Wrapf(ErrInvalidVote, "got %q", v)
	}

	b.mu.Lock()
	b.counts[v]++
	b.mu.Unlock()

	b.bus.Trigger(responseEvent, v)

	return nil
}

// OnVote registers fn for every accepted vote.
func (b *BallotBox) OnVote(fn func(v Vote)) {
	b.bus.On(responseEvent, fn)
}

// Counts lists one group per answer that has at least one vote.
func (b *BallotBox) Counts() []responseCount {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make([]responseCount, 0, 2)
	for _, v := range []Vote{Yes, No} {
		if n := b.counts[v]; n > 0 {
			counts = append(counts, responseCount{ID: string(v), Count: n})
		}
	}

	return counts
}

func (b *BallotBox) Tally() Tally {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Tally{Yes: b.counts[Yes], No: b.counts[No]}
}

type apiMessage struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, data any, errs chan<- error) {
	w.Header().Set("Content-Type", "application/json")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		report(errs, err)
	}
}

func serveResponse(cfg *Config, box *BallotBox, errs chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		var req struct {
			Response string `json:"response"`
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiMessage{Error: "invalid request body"}, errs)

			return
		}

		v, err := ParseVote(req.Response)
		if err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiMessage{Error: err.Error()}, errs)

			return
		}

		if err := box.Cast(v); err != nil {
			writeJSON(cfg, w, http.StatusInternalServerError, apiMessage{Error: "failed to record response"}, errs)
			report(errs, err)

			return
		}

		writeJSON(cfg, w, http.StatusCreated, apiMessage{Message: "Response recorded"}, errs)

		t := box.Tally()
		logf(cfg, "VOTES: %s from %s in %s (yes=%d no=%d)",
			v,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
			t.Yes,
			t.No,
		)
	}
}

func serveResponses(cfg *Config, box *BallotBox, errs chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(cfg, w, http.StatusOK, box.Counts(), errs)
	}
}

// publishVotes forwards every accepted vote to the metrics and the realtime
// responses channel.
func publishVotes(box *BallotBox, hub *Hub, metrics *Metrics) {
	box.OnVote(func(v Vote) {
		metrics.votes.WithLabelValues(string(v)).Inc()

		if err := hub.Publish(responsesChannel, responseEvent, responseRequest{Response: v}); err != nil {
			errorf("Failed to broadcast %s: %v", v, err)
		}
	})
}
