/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

func testConfig() *Config {
	return &Config{
		port:      8080,
		rateLimit: "1000-S",
	}
}

// fakeClock fires timers synchronously from Advance, in due order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Duration
	fn    func()
	done  bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)

	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true

	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d

	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if !t.done && t.at <= target && (next == nil || t.at < next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}

		next.done = true
		c.now = next.at

		c.mu.Unlock()
		next.fn()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}

	return n
}

// manualClock never fires anything; tests call the captured callbacks
// themselves, in whatever order they need.
type manualClock struct {
	mu  sync.Mutex
	fns []func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func (c *manualClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fns = append(c.fns, f)

	return noopTimer{}
}

func (c *manualClock) callback(i int) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fns[i]
}

type fakePlayer struct {
	mu       sync.Mutex
	probeErr error
	playErr  error
	probes   int
	played   []Vote
}

func (p *fakePlayer) Probe() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.probes++

	return p.probeErr
}

func (p *fakePlayer) Play(v Vote) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playErr != nil {
		return p.playErr
	}
	p.played = append(p.played, v)

	return nil
}

func (p *fakePlayer) Played() []Vote {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Vote(nil), p.played...)
}

type fakeSub struct {
	closed atomic.Bool
}

func (f *fakeSub) Close() error {
	f.closed.Store(true)

	return nil
}

// stubRealtime hands out fakeSubs and remembers the callbacks of the last one.
type stubRealtime struct {
	mu     sync.Mutex
	err    error
	subs   []*fakeSub
	onVote func(Vote)
	onFail func(error)
}

func (s *stubRealtime) subscribe(_ context.Context, onVote func(Vote), onFail func(error)) (io.Closer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	sub := &fakeSub{}
	s.subs = append(s.subs, sub)
	s.onVote = onVote
	s.onFail = onFail

	return sub, nil
}

func (s *stubRealtime) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}

func (s *stubRealtime) last() (*fakeSub, func(Vote), func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subs) == 0 {
		return nil, nil, nil
	}

	return s.subs[len(s.subs)-1], s.onVote, s.onFail
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
