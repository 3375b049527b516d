/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Access to the archive API is granted by exchanging the configured archive
// key for a short-lived bearer token. A token is either scoped to one
// collage stable id or, when the scope is empty, valid for the whole archive.

var (
	errNoKey        = errors.New("archive key not configured")
	errBadKey       = errors.New("invalid archive key")
	errBadToken     = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
	errOutOfScope   = errors.New("token not valid for this collage")
)

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// grant is the signed token body.
type grant struct {
	Collage string `json:"col,omitempty"`
	Exp     int64  `json:"exp"`
}

func (g grant) allows(stableID string) bool { return g.Collage == "" || g.Collage == stableID }

type issuer struct {
	key []byte
	now func() time.Time
}

func newIssuer(key string) *issuer { return &issuer{key: []byte(key), now: time.Now} }

func (is *issuer) enabled() bool { return len(is.key) > 0 }

// checkKey compares a presented archive key in constant time.
func (is *issuer) checkKey(presented string) error {
	if !is.enabled() {
		return errNoKey
	}
	if !hmac.Equal([]byte(presented), is.key) {
		return errBadKey
	}
	return nil
}

func (is *issuer) mac(payload []byte) []byte {
	m := hmac.New(sha256.New, is.key)
	_, _ = m.Write(payload)
	return m.Sum(nil)
}

func (is *issuer) issue(collage string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	ttl = min(ttl, maxTokenTTL)
	exp := is.now().Add(ttl)
	body, err := json.Marshal(grant{Collage: collage, Exp: exp.Unix()})
	if err != nil {
		return "", time.Time{}, err
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(body) + "." + enc.EncodeToString(is.mac(body)), exp, nil
}

func (is *issuer) verify(token string) (grant, error) {
	enc := base64.RawURLEncoding
	b64body, b64sig, ok := strings.Cut(token, ".")
	if !ok || !is.enabled() {
		return grant{}, errBadToken
	}
	body, err1 := enc.DecodeString(b64body)
	sig, err2 := enc.DecodeString(b64sig)
	if err1 != nil || err2 != nil || !hmac.Equal(is.mac(body), sig) {
		return grant{}, errBadToken
	}
	var g grant
	if err := json.Unmarshal(body, &g); err != nil {
		return grant{}, errBadToken
	}
	if g.Exp < is.now().Unix() {
		return grant{}, errTokenExpired
	}
	return g, nil
}

// bearer extracts and verifies the request's bearer token.
func (is *issuer) bearer(r *http.Request) (grant, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return grant{}, errBadToken
	}
	return is.verify(strings.TrimSpace(token))
}

func (is *issuer) guard(next func(w http.ResponseWriter, r *http.Request, g grant)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := is.bearer(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gocollage"`)
			replyError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r, g)
	}
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func replyError(w http.ResponseWriter, status int, err error) {
	reply(w, status, struct {
		Error string `json:"error"`
	}{err.Error()})
}
