/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/oklog/run"
	"github.com/pkg/errors"
)

// view is one mounted route. Close unmounts it: timers are cancelled, the
// realtime subscription is closed and late callbacks become no-ops.
type view interface {
	Interact()
	Handle(ctx context.Context, input string) bool
	Close()
}

type route struct {
	path  string
	title string
	mount func(ctx context.Context, s *session) view
}

var routes []route

func init() {
	routes = []route{
		{path: "/", title: "Respond", mount: mountBallot},
		{path: "/view", title: "View Game", mount: mountLive},
		{path: "/stats", title: "View Stats", mount: mountStats},
	}
}

func findRoute(path string) (route, bool) {
	for _, r := range routes {
		if r.path == path {
			return r, true
		}
	}

	return route{}, false
}

// session is everything the mounted views share for one terminal.
type session struct {
	cfg       *Config
	clock     Clock
	timings   Timings
	api       *API
	subscribe SubscribeFunc
	player    Player
	screen    *Screen
}

func newSession(cfg *Config, out io.Writer) *session {
	return &session{
		cfg:       cfg,
		clock:     realClock{},
		timings:   defaultTimings(),
		api:       newAPI(cfg.apiURL),
		subscribe: subscriber(cfg),
		player:    newBellPlayer(out),
		screen:    newScreen(out),
	}
}

func mountBallot(_ context.Context, s *session) view {
	b := newBallotView(s.cfg, s.clock, s.timings, s.api, s.screen.DrawBallot)
	s.screen.DrawBallot(b.State())

	return b
}

func mountLive(ctx context.Context, s *session) view {
	audio := newAudioGate(s.cfg, s.player, s.cfg.muted)

	l := newLiveView(s.clock, s.timings, audio, s.screen.DrawLive)
	s.screen.DrawLive(l.State())

	go func() {
		sub, err := s.subscribe(ctx, l.Apply, func(err error) {
			errorf("Live updates stopped: %v", err)
		})
		if err != nil {
			errorf("Live updates unavailable: %v", err)

			return
		}

		l.attach(sub)
	}()

	return l
}

func mountStats(ctx context.Context, s *session) view {
	d := newDashboard(s.cfg, s.clock, s.timings, s.api, s.subscribe, s.screen.DrawStats)

	go d.Mount(ctx)

	return d
}

// loop feeds input lines to the mounted view until input ends, the user
// quits or ctx is done. A line naming a route navigates to it.
func (s *session) loop(ctx context.Context, r route, lines <-chan string) error {
	current := r.mount(ctx, s)
	defer func() {
		current.Close()
	}()

	logf(s.cfg, "CLIENT: Mounted %s", r.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			input := strings.TrimSpace(line)

			current.Interact()

			switch input {
			case "q", "quit", "exit":
				return nil
			case "":
				continue
			}

			if next, ok := findRoute(input); ok {
				if next.path != r.path {
					current.Close()

					r = next
					current = r.mount(ctx, s)

					logf(s.cfg, "CLIENT: Mounted %s", r.path)
				}

				continue
			}

			if !current.Handle(ctx, input) {
				logf(s.cfg, "CLIENT: Ignoring input %q on %s", input, r.path)
			}
		}
	}
}

func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	return lines
}

func runClient(ctx context.Context, cfg *Config, path string, in io.Reader, out io.Writer) error {
	r, ok := findRoute(path)
	if !ok {
		return fmt.Errorf("unknown route: %q", path)
	}

	s := newSession(cfg, out)

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	lines := readLines(in, loopCtx.Done())

	var g run.Group

	g.Add(run.SignalHandler(loopCtx, os.Interrupt, syscall.SIGTERM))

	g.Add(func() error {
		return s.loop(loopCtx, r, lines)
	}, func(error) {
		stop()
	})

	err := g.Run()

	var sig run.SignalError
	if errors.As(err, &sig) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
