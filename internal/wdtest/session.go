// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wdtest

import (
	"context"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	elementKeyCtx
)

type session struct {
	id           string
	capabilities map[string]interface{}

	history []string
	pos     int

	windows []string
	window  string
	rect    map[string]interface{}
	frame   int

	timeouts map[string]interface{}
	cookies  map[string]map[string]interface{}
	alert    *string
	prompt   string
	active   *Element
	actions  []interface{}
}

func newSession(alwaysMatch map[string]interface{}) *session {
	caps := map[string]interface{}{
		"browserName":    "firefox",
		"browserVersion": "1.0",
		"platformName":   "linux",
	}
	for k, v := range alwaysMatch {
		caps[k] = v
	}
	window := uuid.NewString()
	return &session{
		id:           uuid.NewString(),
		capabilities: caps,
		history:      []string{"about:blank"},
		windows:      []string{window},
		window:       window,
		rect:         map[string]interface{}{"x": 0.0, "y": 0.0, "width": 1280.0, "height": 720.0},
		timeouts:     map[string]interface{}{"script": 30000.0, "pageLoad": 300000.0, "implicit": 0.0},
		cookies:      map[string]map[string]interface{}{},
	}
}

func (sess *session) url() string { return sess.history[sess.pos] }

func (sess *session) visit(url string) {
	sess.history = append(sess.history[:sess.pos+1], url)
	sess.pos++
	sess.frame = 0
	sess.active = nil
}

func (sess *session) sortedCookies() []interface{} {
	names := make([]string, 0, len(sess.cookies))
	for name := range sess.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]interface{}, 0, len(names))
	for _, name := range names {
		out = append(out, sess.cookies[name])
	}
	return out
}

// withSession resolves {sid} or fails with "invalid session id".
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		sess, ok := s.sessions[chi.URLParam(r, "sid")]
		s.mu.Unlock()
		if !ok {
			fail(w, http.StatusNotFound, "invalid session id", "session "+chi.URLParam(r, "sid")+" does not exist")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

// withElement resolves {eid} against the current page of the session.
func (s *Server) withElement(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionOf(r)
		eid := chi.URLParam(r, "eid")
		s.mu.Lock()
		e, ok := s.elements[eid]
		current := s.pages[sess.url()]
		s.mu.Unlock()
		if !ok {
			fail(w, http.StatusNotFound, "no such element", "unknown element "+eid)
			return
		}
		if e.page != current {
			fail(w, http.StatusNotFound, "stale element reference", "element "+eid+" is not attached to the current page")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), elementKeyCtx, e)))
	})
}

func sessionOf(r *http.Request) *session {
	return r.Context().Value(sessionKey).(*session)
}

func elementOf(r *http.Request) *Element {
	e, _ := r.Context().Value(elementKeyCtx).(*Element)
	return e
}
