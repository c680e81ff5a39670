/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPISubmit(t *testing.T) {
	var got responseRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/response", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	api := newAPI(srv.URL + "/")

	require.NoError(t, api.Submit(context.Background(), No))
	assert.Equal(t, No, got.Response)
}

func TestAPISubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newAPI(srv.URL).Submit(context.Background(), Yes)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestAPISubmitServerError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, newAPI(srv.URL).Submit(context.Background(), Yes))
	assert.EqualValues(t, 1, calls.Load(), "votes are never retried")
}

func TestAPISubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, newAPI(url).Submit(context.Background(), Yes))
}

func TestAPISubmitInvalid(t *testing.T) {
	assert.ErrorIs(t, newAPI("http://127.0.0.1:1").Submit(context.Background(), Vote("maybe")), ErrInvalidVote)
}

func TestAPIFetchTally(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		want Tally
	}{
		{"both", `[{"_id":"yes","count":3},{"_id":"no","count":1}]`, Tally{Yes: 3, No: 1}},
		{"missing no", `[{"_id":"yes","count":2}]`, Tally{Yes: 2}},
		{"empty", `[]`, Tally{}},
		{"unknown id", `[{"_id":"maybe","count":9},{"_id":"no","count":4}]`, Tally{No: 4}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/responses", r.URL.Path)

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := newAPI(srv.URL).FetchTally(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAPIFetchTallyErrors(t *testing.T) {
	forbidden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer forbidden.Close()

	_, err := newAPI(forbidden.URL).FetchTally(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer garbage.Close()

	_, err = newAPI(garbage.URL).FetchTally(context.Background())
	assert.Error(t, err)
}
