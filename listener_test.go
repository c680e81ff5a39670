/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/realtime"
}

// subscribed counts the hub's clients attached to channel.
func subscribed(h *Hub, channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c.channels[channel] {
			n++
		}
	}

	return n
}

func waitSubscribed(t *testing.T, h *Hub, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return subscribed(h, responsesChannel) == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestListenerReceivesVotes(t *testing.T) {
	b, srv := newTestBackend(t, testConfig())

	cfg := testConfig()
	cfg.realtimeURL = wsURL(srv.URL)

	votes := make(chan Vote, 8)

	l, err := Subscribe(context.Background(), cfg, func(v Vote) { votes <- v }, func(error) {})
	require.NoError(t, err)
	defer l.Close()

	assert.True(t, strings.HasPrefix(l.clientID, "client-"))

	waitSubscribed(t, b.hub, 1)

	api := newAPI(srv.URL)
	for _, v := range []Vote{Yes, No, No} {
		require.NoError(t, api.Submit(context.Background(), v))
	}

	var got []Vote
	for len(got) < 3 {
		select {
		case v := <-votes:
			got = append(got, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %v before timing out", got)
		}
	}

	assert.Equal(t, []Vote{Yes, No, No}, got)
}

func TestListenerCloseStopsCallbacks(t *testing.T) {
	b, srv := newTestBackend(t, testConfig())

	cfg := testConfig()
	cfg.realtimeURL = wsURL(srv.URL)

	votes := make(chan Vote, 8)
	failures := make(chan error, 1)

	l, err := Subscribe(context.Background(), cfg, func(v Vote) { votes <- v }, func(err error) { failures <- err })
	require.NoError(t, err)

	waitSubscribed(t, b.hub, 1)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	require.Eventually(t, func() bool {
		return b.hub.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, newAPI(srv.URL).Submit(context.Background(), Yes))

	select {
	case v := <-votes:
		t.Fatalf("vote %s delivered after Close", v)
	case err := <-failures:
		t.Fatalf("failure %v reported after Close", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenerReportsLostConnection(t *testing.T) {
	cfg := testConfig()

	errs := make(chan error, 64)
	b, err := newBackend(cfg, errs)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go b.hub.run(ctx)

	srv := httptest.NewServer(b.handler)
	defer srv.Close()

	client := testConfig()
	client.realtimeURL = wsURL(srv.URL)

	failures := make(chan error, 1)

	l, err := Subscribe(context.Background(), client, func(Vote) {}, func(err error) { failures <- err })
	require.NoError(t, err)
	defer l.Close()

	waitSubscribed(t, b.hub, 1)

	// stopping the hub disconnects every client
	cancel()

	select {
	case err := <-failures:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lost connection was never reported")
	}
}

func TestListenerAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.apiKey = "s3cret"

	_, srv := newTestBackend(t, cfg)

	client := testConfig()
	client.realtimeURL = wsURL(srv.URL)

	_, err := Subscribe(context.Background(), client, nil, nil)
	assert.Error(t, err)

	client.apiKey = "wrong"
	_, err = Subscribe(context.Background(), client, nil, nil)
	assert.Error(t, err)

	client.apiKey = "s3cret"
	l, err := Subscribe(context.Background(), client, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, l.Close())
}

func TestRealtimeRequiresClientID(t *testing.T) {
	_, srv := newTestBackend(t, testConfig())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubRejectsEmptyChannel(t *testing.T) {
	_, srv := newTestBackend(t, testConfig())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"?clientId=raw", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Frame{Action: actionSubscribe}))

	read := func() Frame {
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))

		return f
	}

	assert.Equal(t, Frame{Action: actionError, Message: "missing channel"}, read())

	require.NoError(t, conn.WriteJSON(Frame{Action: actionSubscribe, Channel: responsesChannel}))
	assert.Equal(t, Frame{Action: actionAttached, Channel: responsesChannel}, read())

	require.NoError(t, conn.WriteJSON(Frame{Action: actionUnsubscribe, Channel: responsesChannel}))
	assert.Equal(t, Frame{Action: actionDetached, Channel: responsesChannel}, read())
}

func TestSubscriberUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.realtimeURL = "ws://127.0.0.1:1/realtime"

	sub, err := subscriber(cfg)(context.Background(), nil, nil)
	assert.Error(t, err)
	assert.Nil(t, sub)
}
