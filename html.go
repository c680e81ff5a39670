/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

//go:embed assets/*
var assets embed.FS

// serveBallotPage is the phone-friendly voting form. After a vote it shows the
// same acknowledgement the terminal ballot does.
func serveBallotPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body strings.Builder

		body.WriteString(`<main><h1>Make Your Choice!</h1>`)
		body.WriteString(`<form method="post" action="` + cfg.prefix + `/vote">`)
		body.WriteString(`<button class="yes" name="response" value="yes" aria-label="Vote Yes">Yes</button>`)
		body.WriteString(`<button class="no" name="response" value="no" aria-label="Vote No">No</button>`)
		body.WriteString(`</form>`)

		if v, err := ParseVote(r.URL.Query().Get("voted")); err == nil {
			body.WriteString(`<p class="message ` + string(v) + `">You voted: ` + string(v) + `</p>`)
		} else if r.URL.Query().Has("error") {
			body.WriteString(`<p class="message error">` + submitFailedMessage + `</p>`)
		}

		body.WriteString(`</main>`)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if _, err := io.WriteString(w, newPage(cfg, "Make Your Choice!", body.String())); err != nil {
			report(errs, err)
		}
	}
}

func serveBallotForm(cfg *Config, box *BallotBox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

		target := cfg.prefix + "/?error=1"

		if v, err := ParseVote(r.PostFormValue("response")); err == nil {
			if err := box.Cast(v); err == nil {
				target = cfg.prefix + "/?voted=" + string(v)

				logf(cfg, "VOTES: %s from %s (form)", v, realIP(r))
			}
		}

		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// serveQR renders a PNG QR code pointing at the ballot page.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/"

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			report(errs, err)

			return
		}
	}
}

func serveAssets(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := "assets/" + strings.TrimPrefix(p.ByName("asset"), "/")

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		switch strings.ToLower(filepath.Ext(fname)) {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		}

		_, err = w.Write(data)
		if err != nil {
			report(errs, err)

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: *
Disallow: /api/
Disallow: /realtime
Disallow: /vote`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			report(errs, err)

			return
		}
	}
}
