/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	applog "gocollage/internal/log"
	"gocollage/internal/version"
)

// NewHandler exposes the archive read-only:
//
//	GET  /healthz, /readyz, /version
//	POST /api/auth/token                      {key, collage?, ttl_seconds?} -> {token, expires_at}
//	GET  /api/collages                        (bearer token)
//	GET  /api/collages/{stable_id}/latest     (bearer token)
//
// key is the archive key clients must present to obtain a token. With an
// empty key no tokens are issued and the /api/collages routes stay closed.
func NewHandler(store Store, key string) http.Handler {
	l := applog.WithComponent("backend")
	is := newIssuer(key)
	if !is.enabled() {
		l.Warn("archive key not set; collage API disabled")
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})

	mux.HandleFunc("/api/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req tokenRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
			replyError(w, http.StatusBadRequest, fmt.Errorf("decode token request: %w", err))
			return
		}
		switch err := is.checkKey(req.Key); {
		case errors.Is(err, errNoKey):
			replyError(w, http.StatusServiceUnavailable, err)
			return
		case err != nil:
			l.Warn("token refused", slog.String("remote", r.RemoteAddr), slog.String("collage", req.Collage))
			replyError(w, http.StatusUnauthorized, err)
			return
		}
		tok, exp, err := is.issue(req.Collage, time.Duration(req.TTLSeconds)*time.Second)
		if err != nil {
			replyError(w, http.StatusInternalServerError, err)
			return
		}
		reply(w, http.StatusOK, tokenResponse{Token: tok, ExpiresAt: exp.UTC()})
	})

	mux.HandleFunc("/api/collages", is.guard(func(w http.ResponseWriter, r *http.Request, g grant) {
		list, err := store.List(r.Context())
		if err != nil {
			l.Error("list collages", slog.Any("err", err))
			replyError(w, http.StatusInternalServerError, err)
			return
		}
		visible := make([]Summary, 0, len(list))
		for _, s := range list {
			if g.allows(s.StableID) {
				visible = append(visible, s)
			}
		}
		reply(w, http.StatusOK, visible)
	}))

	mux.HandleFunc("/api/collages/", is.guard(func(w http.ResponseWriter, r *http.Request, g grant) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 4 || parts[0] != "api" || parts[1] != "collages" || parts[3] != "latest" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		id := parts[2]
		if !g.allows(id) {
			replyError(w, http.StatusForbidden, errOutOfScope)
			return
		}
		p, err := store.Latest(r.Context(), id)
		switch {
		case errors.Is(err, ErrNotFound):
			replyError(w, http.StatusNotFound, err)
		case err != nil:
			l.Error("latest layout", slog.String("collage", id), slog.Any("err", err))
			replyError(w, http.StatusInternalServerError, err)
		default:
			reply(w, http.StatusOK, p)
		}
	}))
	return mux
}

type tokenRequest struct {
	Key        string `json:"key"`
	Collage    string `json:"collage,omitempty"` // empty for archive-wide access
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, store Store, key string) error {
	if key == "" {
		return fmt.Errorf("serve: %w: set backend.secret or %s", errNoKey, "GCL_BACKEND_SECRET")
	}
	srv := &http.Server{Addr: addr, Handler: NewHandler(store, key), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	applog.WithComponent("backend").Info("listening", slog.String("addr", addr))
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
