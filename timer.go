/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"
	"time"
)

type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Timings holds every delay the views use.
type Timings struct {
	Navbar     time.Duration
	Overlay    time.Duration
	LiveParty  time.Duration
	VoteParty  time.Duration
	StatsBurst time.Duration
}

func defaultTimings() Timings {
	return Timings{
		Navbar:     3 * time.Second,
		Overlay:    3 * time.Second,
		LiveParty:  3 * time.Second,
		VoteParty:  5 * time.Second,
		StatsBurst: 2 * time.Second,
	}
}

// timerSlot holds at most one pending timer. Arming the slot stops and
// invalidates whatever was pending, so a callback from a superseded timer
// never runs even if it already started waiting on the owner's lock.
//
// arm and cancel must be called with mu held; fn runs with mu held.
type timerSlot struct {
	clock Clock
	mu    sync.Locker
	timer Timer
	gen   uint64
}

func newTimerSlot(clock Clock, mu sync.Locker) *timerSlot {
	return &timerSlot{clock: clock, mu: mu}
}

func (s *timerSlot) arm(d time.Duration, fn func()) {
	s.cancel()

	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.gen != gen {
			return
		}
		s.timer = nil

		fn()
	})
}

func (s *timerSlot) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
