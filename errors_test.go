/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestReportNeverBlocks(t *testing.T) {
	errs := make(chan error, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)

		report(errs, errors.New("first"))
		report(errs, errors.New("second"))
		report(errs, errors.New("third"))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("report blocked on a full channel")
	}

	assert.EqualError(t, <-errs, "first")
	assert.Empty(t, errs)
}

func TestNewPage(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/game"

	page := newPage(cfg, "<Votes>", "<p>hi</p>")

	assert.Contains(t, page, `href="/game/assets/app.css"`)
	assert.Contains(t, page, "<title>&lt;Votes&gt;</title>")
	assert.Contains(t, page, "<p>hi</p>")
}
