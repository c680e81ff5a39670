/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	clearScreen = "\033[H\033[2J"
	barWidth    = 40
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Screen draws view states to a terminal. Every draw replaces the previous
// frame when the output is a terminal and appends otherwise.
type Screen struct {
	mu  sync.Mutex
	out io.Writer
	tty bool

	green  *color.Color
	red    *color.Color
	purple *color.Color
	white  *color.Color
	dim    *color.Color
}

func newScreen(out io.Writer) *Screen {
	s := &Screen{
		out:    out,
		tty:    isTerminal(out),
		green:  color.New(color.FgHiGreen, color.Bold),
		red:    color.New(color.FgHiRed, color.Bold),
		purple: color.New(color.FgHiMagenta, color.Bold),
		white:  color.New(color.FgHiWhite, color.Bold),
		dim:    color.New(color.Faint),
	}

	for _, c := range []*color.Color{s.green, s.red, s.purple, s.white, s.dim} {
		if s.tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

func (s *Screen) voteColor(v Vote) *color.Color {
	switch v {
	case Yes:
		return s.green
	case No:
		return s.red
	}
	return s.white
}

func (s *Screen) navbar(b *strings.Builder, current string, extra ...string) {
	var links []string
	for _, r := range routes {
		if r.path == current {
			continue
		}
		links = append(links, s.purple.Sprintf("[%s]", r.path)+" "+r.title)
	}
	links = append(links, extra...)

	b.WriteString(strings.Join(links, "   "))
	b.WriteString("\n\n")
}

// confetti is a line of randomly coloured particles; more when bursting.
func (s *Screen) confetti(b *strings.Builder, n int) {
	palette := []*color.Color{s.green, s.red, s.purple, s.white}
	glyphs := []string{"*", "+", "o", "."}

	for range n {
		c := palette[rand.IntN(len(palette))]
		b.WriteString(c.Sprint(glyphs[rand.IntN(len(glyphs))]))
	}
	b.WriteString("\n")
}

func (s *Screen) bar(b *strings.Builder, c *color.Color, label string, n, top int) {
	width := 0
	if top > 0 {
		width = n * barWidth / top
	}

	b.WriteString(label)
	b.WriteString(" ")
	b.WriteString(c.Sprint(strings.Repeat("█", width)))
	b.WriteString(s.dim.Sprint(strings.Repeat("░", barWidth-width)))
	b.WriteString("\n")
}

func (s *Screen) flush(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tty {
		frame = clearScreen + frame
	} else {
		frame += "\n"
	}

	_, _ = io.WriteString(s.out, frame)
}

func (s *Screen) DrawBallot(st BallotState) {
	var b strings.Builder

	if st.Navbar {
		s.navbar(&b, "/")
	}

	if st.Confetti {
		s.confetti(&b, 60)
	}

	b.WriteString(s.white.Sprint("Make Your Choice!"))
	b.WriteString("\n\n")
	b.WriteString(s.green.Sprint("[y] Yes") + "   " + s.red.Sprint("[n] No"))
	b.WriteString("\n")

	if st.Message != "" {
		b.WriteString("\n")
		switch st.Outcome {
		case Acknowledged:
			b.WriteString(s.voteColor(st.Vote).Sprint(st.Message))
		default:
			b.WriteString(s.dim.Sprint(st.Message))
		}
		b.WriteString("\n")
	}

	s.flush(b.String())
}

func (s *Screen) DrawLive(st LiveState) {
	var b strings.Builder

	if st.Navbar {
		mute := "Mute"
		if st.Muted {
			mute = "Unmute"
		}
		s.navbar(&b, "/view", s.purple.Sprint("[m]")+" "+mute, s.purple.Sprint("[t]")+" Test Audio")
	}

	if st.Confetti {
		s.confetti(&b, 80)
	}

	switch {
	case st.Total == 0:
		b.WriteString(s.white.Sprint("Let's play games!"))
	case st.Phase == Overlay:
		glyph := "✔"
		if st.Vote == No {
			glyph = "✘"
		}
		b.WriteString(s.voteColor(st.Vote).Sprintf("%s  %s", glyph, strings.ToUpper(st.Vote.Title())))
	case st.Phase == Result:
		b.WriteString(s.voteColor(st.Vote).Sprint(st.Message))
	}
	b.WriteString("\n")

	s.flush(b.String())
}

func (s *Screen) DrawStats(st StatsState) {
	var b strings.Builder

	if st.Navbar {
		s.navbar(&b, "/stats")
	}

	switch st.Phase {
	case Loading:
		b.WriteString(s.white.Sprint("Loading..."))
		b.WriteString("\n")
	case Unavailable:
		b.WriteString(s.red.Sprint(st.Error))
		b.WriteString("\n")
	case Ready:
		if st.Burst {
			s.confetti(&b, 40)
		}

		t := st.Tally

		b.WriteString(s.white.Sprint("Game Stats"))
		b.WriteString("\n\n")
		b.WriteString(s.green.Sprintf("Yes: %d (%s%%)", t.Yes, t.PercentString(Yes)))
		b.WriteString("   ")
		b.WriteString(s.red.Sprintf("No: %d (%s%%)", t.No, t.PercentString(No)))
		b.WriteString("\n\n")

		top := max(t.Yes, t.No)
		s.bar(&b, s.green, "Yes", t.Yes, top)
		s.bar(&b, s.red, "No ", t.No, top)
		b.WriteString("\n")

		progress := int(t.Percent(Yes) * barWidth / 100)
		b.WriteString("    ")
		b.WriteString(s.green.Sprint(strings.Repeat("█", progress)))
		b.WriteString(s.dim.Sprint(strings.Repeat("░", barWidth-progress)))
		b.WriteString("\n")
	}

	s.flush(b.String())
}
