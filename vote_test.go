/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVote(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Vote
	}{
		{"yes", Yes},
		{"no", No},
		{" YES ", Yes},
		{"No", No},
	} {
		got, err := ParseVote(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	for _, in := range []string{"", "maybe", "y", "yess"} {
		_, err := ParseVote(in)
		assert.True(t, errors.Is(err, ErrInvalidVote), in)
	}
}

func TestVoteText(t *testing.T) {
	assert.Equal(t, "Yes", Yes.Title())
	assert.Equal(t, "No", No.Title())
	assert.Equal(t, "You are correct!", Yes.Verdict())
	assert.Equal(t, "You are wrong!", No.Verdict())
	assert.False(t, Vote("maybe").Valid())
}

func TestTallyPercentages(t *testing.T) {
	tally := Tally{Yes: 3, No: 1}

	assert.Equal(t, 4, tally.Total())
	assert.Equal(t, "75.0", tally.PercentString(Yes))
	assert.Equal(t, "25.0", tally.PercentString(No))

	for yes := 0; yes < 12; yes++ {
		for no := 0; no < 12; no++ {
			tally := Tally{Yes: yes, No: no}

			sum := tally.Percent(Yes) + tally.Percent(No)
			if tally.Total() == 0 {
				assert.Zero(t, sum)

				continue
			}
			assert.InDelta(t, 100, sum, 1e-9)
		}
	}
}

func TestTallyEmpty(t *testing.T) {
	var tally Tally

	assert.Equal(t, "0", tally.PercentString(Yes))
	assert.Equal(t, "0", tally.PercentString(No))
	assert.Zero(t, tally.Percent(Yes))
}

func TestTallyWith(t *testing.T) {
	tally := Tally{Yes: 2, No: 5}

	after := tally.with(Yes)
	assert.Equal(t, Tally{Yes: 3, No: 5}, after)
	assert.Equal(t, tally.Total()+1, after.Total())

	after = tally.with(No)
	assert.Equal(t, Tally{Yes: 2, No: 6}, after)

	assert.Equal(t, tally, tally.with(Vote("maybe")))
}
