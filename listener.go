/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

func newClientID() string {
	return "client-" + uuid.NewString()[:8]
}

// Listener is one realtime connection subscribed to the responses channel.
// Votes are delivered in arrival order on a single goroutine.
type Listener struct {
	cfg      *Config
	conn     *websocket.Conn
	clientID string
	onVote   func(Vote)
	onFail   func(error)

	closing   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Subscribe connects to the realtime service and starts delivering votes.
// A failure after this returns is reported once through onFail.
func Subscribe(ctx context.Context, cfg *Config, onVote func(Vote), onFail func(error)) (*Listener, error) {
	u, err := url.Parse(cfg.realtimeURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse realtime url")
	}

	clientID := newClientID()

	q := u.Query()
	q.Set("clientId", clientID)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if cfg.apiKey != "" {
		header.Set("Authorization", "Bearer "+cfg.apiKey)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "dial realtime: %s", resp.Status)
		}

		return nil, errors.Wrap(err, "dial realtime")
	}

	if err := conn.WriteJSON(Frame{Action: actionSubscribe, Channel: responsesChannel}); err != nil {
		_ = conn.Close()

		return nil, errors.Wrap(err, "subscribe")
	}

	l := &Listener{
		cfg:      cfg,
		conn:     conn,
		clientID: clientID,
		onVote:   onVote,
		onFail:   onFail,
		done:     make(chan struct{}),
	}

	go l.readLoop()

	logf(cfg, "REALTIME: Connected as %s", clientID)

	return l, nil
}

// subscriber adapts Subscribe for the views.
func subscriber(cfg *Config) SubscribeFunc {
	return func(ctx context.Context, onVote func(Vote), onFail func(error)) (io.Closer, error) {
		l, err := Subscribe(ctx, cfg, onVote, onFail)
		if err != nil {
			return nil, err
		}

		return l, nil
	}
}

func (l *Listener) readLoop() {
	defer close(l.done)

	for {
		var f Frame
		if err := l.conn.ReadJSON(&f); err != nil {
			if !l.closing.Load() && l.onFail != nil {
				l.onFail(errors.Wrap(err, "realtime connection lost"))
			}

			return
		}

		if l.closing.Load() {
			return
		}

		switch f.Action {
		case actionMessage:
			if f.Channel != responsesChannel || f.Name != responseEvent {
				continue
			}

			var p responseRequest
			if err := json.Unmarshal(f.Data, &p); err != nil {
				logf(l.cfg, "REALTIME: Ignoring malformed message: %v", err)

				continue
			}

			v, err := ParseVote(string(p.Response))
			if err != nil {
				logf(l.cfg, "REALTIME: Ignoring message: %v", err)

				continue
			}

			if l.onVote != nil {
				l.onVote(v)
			}
		case actionAttached:
			logf(l.cfg, "REALTIME: Attached to %q", f.Channel)
		case actionError:
			errorf("Realtime service: %s", f.Message)
		}
	}
}

// Close unsubscribes and closes the connection. No callback runs after Close
// returns, so it must not be called from inside onVote or onFail.
func (l *Listener) Close() error {
	var err error

	l.closeOnce.Do(func() {
		l.closing.Store(true)

		_ = l.conn.WriteJSON(Frame{Action: actionUnsubscribe, Channel: responsesChannel})
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))

		err = l.conn.Close()

		<-l.done

		logf(l.cfg, "REALTIME: Disconnected %s", l.clientID)
	})

	return err
}
