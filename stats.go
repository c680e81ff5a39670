/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"io"
	"sync"
)

const (
	loadFailedMessage    = "Failed to load responses"
	connectFailedMessage = "Failed to connect to real-time service"
)

type StatsPhase int

const (
	Loading StatsPhase = iota
	Ready
	Unavailable
)

type StatsState struct {
	Phase  StatsPhase
	Tally  Tally
	Burst  bool
	Error  string
	Navbar bool
}

// SubscribeFunc opens a realtime subscription delivering votes to onVote.
// onFail is called if the connection is lost afterwards.
type SubscribeFunc func(ctx context.Context, onVote func(Vote), onFail func(error)) (io.Closer, error)

// Dashboard is the aggregate view. Any load or connection failure blocks it
// with a message until the route is mounted again.
type Dashboard struct {
	mu sync.Mutex

	cfg       *Config
	subscribe SubscribeFunc
	render    func(StatsState)

	counter *Counter
	nav     *Visibility

	phase  StatsPhase
	err    string
	sub    io.Closer
	closed bool
}

func newDashboard(cfg *Config, clock Clock, timings Timings, source TallySource, subscribe SubscribeFunc, render func(StatsState)) *Dashboard {
	d := &Dashboard{
		cfg:       cfg,
		subscribe: subscribe,
		render:    render,
	}

	d.counter = newCounter(source, clock, timings.StatsBurst, &d.mu, d.drawLocked)
	d.nav = newVisibility(clock, timings.Navbar, &d.mu, func(bool) {
		d.drawLocked()
	})

	return d
}

// Mount loads the initial tally and then subscribes to live updates.
func (d *Dashboard) Mount(ctx context.Context) {
	d.mu.Lock()
	d.drawLocked()
	d.mu.Unlock()

	if _, err := d.counter.Initialize(ctx); err != nil {
		errorf("Failed to load responses: %v", err)
		d.fail(loadFailedMessage)

		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()

		return
	}
	d.phase = Ready
	d.drawLocked()
	d.mu.Unlock()

	sub, err := d.subscribe(ctx, d.Apply, func(err error) {
		errorf("Realtime connection failed: %v", err)
		d.fail(connectFailedMessage)
	})
	if err != nil {
		errorf("Realtime connection failed: %v", err)
		d.fail(connectFailedMessage)

		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		_ = sub.Close()

		return
	}
	d.sub = sub
	d.mu.Unlock()
}

// Apply counts one broadcast vote.
func (d *Dashboard) Apply(v Vote) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.phase != Ready {
		return
	}

	d.counter.applyLocked(v)
	d.drawLocked()
}

func (d *Dashboard) Interact() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.nav.Touch()
}

func (d *Dashboard) Handle(context.Context, string) bool {
	return false
}

func (d *Dashboard) State() StatsState {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.snapshotLocked()
}

func (d *Dashboard) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()

		return
	}
	d.closed = true

	d.counter.stopLocked()
	d.nav.Cancel()

	sub := d.sub
	d.sub = nil
	d.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

func (d *Dashboard) fail(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.phase = Unavailable
	d.err = msg
	d.counter.stopLocked()
	d.drawLocked()
}

func (d *Dashboard) snapshotLocked() StatsState {
	return StatsState{
		Phase:  d.phase,
		Tally:  d.counter.tallyLocked(),
		Burst:  d.counter.burstingLocked(),
		Error:  d.err,
		Navbar: d.nav.Visible(),
	}
}

func (d *Dashboard) drawLocked() {
	if d.render != nil && !d.closed {
		d.render(d.snapshotLocked())
	}
}
