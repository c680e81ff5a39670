/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"sync"
	"time"
)

type TallySource interface {
	FetchTally(ctx context.Context) (Tally, error)
}

// Counter keeps the running tally seeded from one fetch and advanced by
// broadcast events. It shares its owner's lock: Initialize takes it, the
// *Locked methods expect it held.
type Counter struct {
	source   TallySource
	mu       sync.Locker
	burstFor time.Duration
	burst    *timerSlot
	onChange func()

	tally    Tally
	bursting bool
}

func newCounter(source TallySource, clock Clock, burstFor time.Duration, mu sync.Locker, onChange func()) *Counter {
	return &Counter{
		source:   source,
		mu:       mu,
		burstFor: burstFor,
		burst:    newTimerSlot(clock, mu),
		onChange: onChange,
	}
}

// Initialize fetches the current totals once and seeds the tally with them.
func (c *Counter) Initialize(ctx context.Context) (Tally, error) {
	t, err := c.source.FetchTally(ctx)
	if err != nil {
		return Tally{}, err
	}

	c.mu.Lock()
	c.tally = t
	c.mu.Unlock()

	return t, nil
}

// applyLocked counts one event and opens the burst window.
func (c *Counter) applyLocked(v Vote) Tally {
	if !v.Valid() {
		return c.tally
	}

	c.tally = c.tally.with(v)
	c.bursting = true

	c.burst.arm(c.burstFor, func() {
		c.bursting = false

		if c.onChange != nil {
			c.onChange()
		}
	})

	return c.tally
}

func (c *Counter) tallyLocked() Tally {
	return c.tally
}

func (c *Counter) burstingLocked() bool {
	return c.bursting
}

func (c *Counter) stopLocked() {
	c.burst.cancel()
	c.bursting = false
}
