/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"io"
	"strings"
	"sync"
)

type Phase int

const (
	Idle Phase = iota
	Overlay
	Result
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Overlay:
		return "overlay"
	case Result:
		return "result"
	}
	return "unknown"
}

// LiveState is what the live display shows at one instant.
type LiveState struct {
	Phase    Phase
	Vote     Vote
	Message  string
	Total    int
	Confetti bool
	Navbar   bool
	Muted    bool
}

// LiveView reacts to every broadcast vote with a full-screen overlay, then a
// verdict message that stays until the next vote or user interaction.
type LiveView struct {
	mu sync.Mutex

	timings Timings
	audio   *AudioGate
	render  func(LiveState)

	overlay *timerSlot
	party   *timerSlot
	nav     *Visibility

	state  LiveState
	sub    io.Closer
	closed bool
}

func newLiveView(clock Clock, timings Timings, audio *AudioGate, render func(LiveState)) *LiveView {
	l := &LiveView{
		timings: timings,
		audio:   audio,
		render:  render,
	}

	l.overlay = newTimerSlot(clock, &l.mu)
	l.party = newTimerSlot(clock, &l.mu)
	l.nav = newVisibility(clock, timings.Navbar, &l.mu, func(visible bool) {
		l.state.Navbar = visible
		l.drawLocked()
	})

	return l
}

// Apply handles one broadcast vote.
func (l *LiveView) Apply(v Vote) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || !v.Valid() {
		return
	}

	l.state.Total++
	l.state.Phase = Overlay
	l.state.Vote = v
	l.state.Message = ""

	if v == Yes {
		l.state.Confetti = true
		l.party.arm(l.timings.LiveParty, func() {
			l.state.Confetti = false
			l.drawLocked()
		})
	}

	l.audio.Play(v)

	l.overlay.arm(l.timings.Overlay, func() {
		l.state.Phase = Result
		l.state.Message = l.state.Vote.Verdict()
		l.drawLocked()
	})

	l.drawLocked()
}

func (l *LiveView) Interact() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.audio.Gesture()
	l.nav.Touch()

	if l.state.Phase == Result {
		l.state.Phase = Idle
		l.state.Message = ""
		l.drawLocked()
	}
}

func (l *LiveView) ToggleMute() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.audio.ToggleMute()
	l.drawLocked()
}

func (l *LiveView) SetMuted(muted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.audio.SetMuted(muted)
	l.drawLocked()
}

// TestAudio plays the yes sound if the gate allows it.
func (l *LiveView) TestAudio() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}

	return l.audio.Play(Yes)
}

func (l *LiveView) Handle(_ context.Context, input string) bool {
	switch strings.ToLower(input) {
	case "m":
		l.ToggleMute()
	case "mute":
		l.SetMuted(true)
	case "unmute":
		l.SetMuted(false)
	case "t", "test":
		l.TestAudio()
	default:
		return false
	}

	return true
}

func (l *LiveView) State() LiveState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snapshotLocked()
}

// attach hands the view its realtime subscription. It reports false, and
// closes sub, if the view was already unmounted.
func (l *LiveView) attach(sub io.Closer) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		_ = sub.Close()

		return false
	}
	l.sub = sub
	l.mu.Unlock()

	return true
}

func (l *LiveView) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return
	}
	l.closed = true

	l.overlay.cancel()
	l.party.cancel()
	l.nav.Cancel()

	sub := l.sub
	l.sub = nil
	l.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

func (l *LiveView) snapshotLocked() LiveState {
	st := l.state
	st.Muted = l.audio.Muted()

	return st
}

func (l *LiveView) drawLocked() {
	if l.render != nil && !l.closed {
		l.render(l.snapshotLocked())
	}
}
