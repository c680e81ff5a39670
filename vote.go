/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidVote = errors.New("vote must be \"yes\" or \"no\"")

type Vote string

const (
	Yes Vote = "yes"
	No  Vote = "no"
)

func ParseVote(s string) (Vote, error) {
	switch v := Vote(strings.ToLower(strings.TrimSpace(s))); v {
	case Yes, No:
		return v, nil
	default:
		return "", errors.Wrapf(ErrInvalidVote, "got %q", s)
	}
}

func (v Vote) Valid() bool {
	return v == Yes || v == No
}

// Title is the capitalised form shown in the overlay.
func (v Vote) Title() string {
	switch v {
	case Yes:
		return "Yes"
	case No:
		return "No"
	}
	return ""
}

// Verdict is the persistent message shown once the overlay for v ends.
func (v Vote) Verdict() string {
	if v == Yes {
		return "You are correct!"
	}
	return "You are wrong!"
}

// Tally is the running count of both answers. Counts never decrease within a
// session.
type Tally struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

func (t Tally) Total() int {
	return t.Yes + t.No
}

func (t Tally) Count(v Vote) int {
	switch v {
	case Yes:
		return t.Yes
	case No:
		return t.No
	}
	return 0
}

// Percent is the share of v in the tally, 0 when nobody has voted.
func (t Tally) Percent(v Vote) float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return float64(t.Count(v)) / float64(total) * 100
}

func (t Tally) PercentString(v Vote) string {
	if t.Total() == 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", t.Percent(v))
}

// with returns t with one more vote for v.
func (t Tally) with(v Vote) Tally {
	switch v {
	case Yes:
		t.Yes++
	case No:
		t.No++
	}
	return t
}
