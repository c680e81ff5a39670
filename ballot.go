/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"strings"
	"sync"
)

const submitFailedMessage = "Error sending response"

type Outcome int

const (
	Pending Outcome = iota
	Acknowledged
	Failed
)

type BallotState struct {
	Outcome  Outcome
	Vote     Vote
	Message  string
	Confetti bool
	Navbar   bool
}

type Submitter interface {
	Submit(ctx context.Context, v Vote) error
}

// BallotView is the voting screen. Its tally is never touched locally; the
// acknowledgement only reflects this client's own submission.
type BallotView struct {
	mu sync.Mutex

	cfg       *Config
	timings   Timings
	submitter Submitter
	render    func(BallotState)

	party *timerSlot
	nav   *Visibility

	state  BallotState
	closed bool
}

func newBallotView(cfg *Config, clock Clock, timings Timings, submitter Submitter, render func(BallotState)) *BallotView {
	b := &BallotView{
		cfg:       cfg,
		timings:   timings,
		submitter: submitter,
		render:    render,
	}

	b.party = newTimerSlot(clock, &b.mu)
	b.nav = newVisibility(clock, timings.Navbar, &b.mu, func(visible bool) {
		b.state.Navbar = visible
		b.drawLocked()
	})

	return b
}

// Submit sends v and moves the view to the acknowledged or failed state. The
// outcome is dropped if the view was closed while the request was in flight.
func (b *BallotView) Submit(ctx context.Context, v Vote) error {
	err := b.submitter.Submit(ctx, v)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return err
	}

	if err != nil {
		errorf("Failed to submit vote: %v", err)

		b.state.Outcome = Failed
		b.state.Vote = ""
		b.state.Message = submitFailedMessage
		b.drawLocked()

		return err
	}

	logf(b.cfg, "VOTES: Submitted %s", v)

	b.state.Outcome = Acknowledged
	b.state.Vote = v
	b.state.Message = "You voted: " + string(v)

	if v == Yes {
		b.state.Confetti = true
		b.party.arm(b.timings.VoteParty, func() {
			b.state.Confetti = false
			b.drawLocked()
		})
	}

	b.drawLocked()

	return nil
}

func (b *BallotView) Interact() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.nav.Touch()

	if b.state.Outcome != Pending {
		b.state.Outcome = Pending
		b.state.Vote = ""
		b.state.Message = ""
		b.drawLocked()
	}
}

func (b *BallotView) Handle(ctx context.Context, input string) bool {
	var v Vote

	switch strings.ToLower(input) {
	case "y", "yes":
		v = Yes
	case "n", "no":
		v = No
	default:
		return false
	}

	go func() {
		_ = b.Submit(ctx, v)
	}()

	return true
}

func (b *BallotView) State() BallotState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

func (b *BallotView) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	b.party.cancel()
	b.nav.Cancel()
}

func (b *BallotView) drawLocked() {
	if b.render != nil && !b.closed {
		b.render(b.state)
	}
}
