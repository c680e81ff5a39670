/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

var ErrAudioUnavailable = errors.New("audio output is not a terminal")

type Player interface {
	// Probe attempts a silent playback, failing the same way Play would.
	Probe() error
	Play(v Vote) error
}

// AudioGate plays sounds only when the user has not muted them and a user
// gesture has unlocked playback. The unlock latch moves from locked to
// unlocked once and is never re-attempted after that.
type AudioGate struct {
	cfg    *Config
	player Player

	mu       sync.Mutex
	muted    bool
	unlocked bool
}

func newAudioGate(cfg *Config, player Player, muted bool) *AudioGate {
	return &AudioGate{
		cfg:    cfg,
		player: player,
		muted:  muted,
	}
}

// Gesture is called for every user interaction.
func (a *AudioGate) Gesture() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.unlocked {
		return
	}

	if err := a.player.Probe(); err != nil {
		logf(a.cfg, "AUDIO: Failed to unlock audio: %v", err)

		return
	}

	a.unlocked = true

	logf(a.cfg, "AUDIO: Unlocked")
}

func (a *AudioGate) ToggleMute() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.muted = !a.muted

	return a.muted
}

func (a *AudioGate) SetMuted(muted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.muted = muted
}

func (a *AudioGate) Muted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.muted
}

// Play reports whether a sound was actually started.
func (a *AudioGate) Play(v Vote) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.muted || !a.unlocked {
		return false
	}

	if err := a.player.Play(v); err != nil {
		logf(a.cfg, "AUDIO: Playback failed for %s: %v", v, err)

		return false
	}

	return true
}

// bellPlayer rings the terminal bell: once for yes, twice for no.
type bellPlayer struct {
	out io.Writer
	tty bool
}

func newBellPlayer(out io.Writer) *bellPlayer {
	return &bellPlayer{
		out: out,
		tty: isTerminal(out),
	}
}

func (b *bellPlayer) Probe() error {
	if !b.tty {
		return ErrAudioUnavailable
	}

	return nil
}

func (b *bellPlayer) Play(v Vote) error {
	if !b.tty {
		return ErrAudioUnavailable
	}

	bell := "\a"
	if v == No {
		bell = "\a\a"
	}

	_, err := io.WriteString(b.out, bell)

	return errors.Wrap(err, "ring bell")
}
