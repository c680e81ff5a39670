/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"
	"time"
)

// Visibility is a debounced show/hide flag. Every Touch shows it and restarts
// the hide timer; it hides again only after a full quiet period.
//
// The owner passes its own lock in; Touch and Cancel must be called with that
// lock held and onChange is invoked with it held.
type Visibility struct {
	delay    time.Duration
	hide     *timerSlot
	visible  bool
	onChange func(visible bool)
}

func newVisibility(clock Clock, delay time.Duration, mu sync.Locker, onChange func(bool)) *Visibility {
	return &Visibility{
		delay:    delay,
		hide:     newTimerSlot(clock, mu),
		onChange: onChange,
	}
}

func (n *Visibility) Touch() {
	n.set(true)

	n.hide.arm(n.delay, func() {
		n.set(false)
	})
}

// Cancel stops the pending hide timer without changing visibility.
func (n *Visibility) Cancel() {
	n.hide.cancel()
}

func (n *Visibility) Visible() bool {
	return n.visible
}

func (n *Visibility) set(visible bool) {
	if n.visible == visible {
		return
	}
	n.visible = visible

	if n.onChange != nil {
		n.onChange(visible)
	}
}
