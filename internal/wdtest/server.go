// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wdtest runs an in-memory W3C WebDriver server for tests.
//
// The server keeps sessions, windows, cookies, alerts and a browsing
// history, and serves pages registered with AddPage. Scripts are not
// executed by a JavaScript engine: a handful of common snippets are
// understood and others can be registered with HandleScript.
package wdtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// elementKey is the W3C web element identifier.
const elementKey = "element-6066-11e4-a52e-4f735466cecf"

// Request is a request as the server received it.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the request body, or returns nil for an empty body.
func (r Request) JSON() map[string]interface{} {
	if len(r.Body) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(r.Body, &m); err != nil {
		return nil
	}
	return m
}

type override struct {
	method string
	path   string
	status int
	body   string
}

// Option configures a Server.
type Option func(*Server)

// WithLegacySessionKey makes new-session responses carry "session_id"
// instead of "sessionId".
func WithLegacySessionKey() Option {
	return func(s *Server) { s.legacySessionKey = true }
}

// WithoutSessionID makes new-session responses carry no id at all.
func WithoutSessionID() Option {
	return func(s *Server) { s.noSessionID = true }
}

// Server is a fake WebDriver endpoint. Its URL field is the base URL to
// give to a client.
type Server struct {
	*httptest.Server

	legacySessionKey bool
	noSessionID      bool

	mu        sync.Mutex
	pages     map[string]*Page
	elements  map[string]*Element
	sessions  map[string]*session
	scripts   map[string]ScriptFunc
	overrides []override
	requests  []Request
}

// NewServer starts a server. Stop it with Close.
func NewServer(opts ...Option) *Server {
	s := &Server{
		pages:    map[string]*Page{},
		elements: map[string]*Element{},
		sessions: map[string]*session{},
		scripts:  map[string]ScriptFunc{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.overridden)

	r.Get("/status", s.handleStatus)
	r.Post("/session", s.handleNewSession)
	r.Route("/session/{sid}", func(r chi.Router) {
		r.Use(s.withSession)
		r.Delete("/", s.handleDeleteSession)

		r.Post("/url", s.handleNavigate)
		r.Get("/url", s.handleCurrentURL)
		r.Post("/back", s.handleBack)
		r.Post("/forward", s.handleForward)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/title", s.handleTitle)
		r.Get("/source", s.handleSource)

		r.Get("/timeouts", s.handleGetTimeouts)
		r.Post("/timeouts", s.handleSetTimeouts)

		r.Get("/window", s.handleWindowHandle)
		r.Delete("/window", s.handleCloseWindow)
		r.Post("/window", s.handleSwitchWindow)
		r.Post("/window/new", s.handleNewWindow)
		r.Get("/window/handles", s.handleWindowHandles)
		r.Get("/window/rect", s.handleGetWindowRect)
		r.Post("/window/rect", s.handleSetWindowRect)
		r.Post("/window/maximize", s.handleWindowState(1920, 1080))
		r.Post("/window/minimize", s.handleWindowState(0, 0))
		r.Post("/window/fullscreen", s.handleWindowState(1920, 1080))
		r.Post("/frame", s.handleSwitchFrame)
		r.Post("/frame/parent", s.handleParentFrame)

		r.Post("/element", s.handleFind(false, false))
		r.Post("/elements", s.handleFind(true, false))
		r.Get("/element/active", s.handleActiveElement)
		r.Route("/element/{eid}", func(r chi.Router) {
			r.Use(s.withElement)
			r.Post("/element", s.handleFind(false, true))
			r.Post("/elements", s.handleFind(true, true))
			r.Get("/attribute/{name}", s.handleAttribute)
			r.Get("/property/{name}", s.handleProperty)
			r.Get("/css/{name}", s.handleCSS)
			r.Get("/text", s.handleText)
			r.Get("/name", s.handleTagName)
			r.Get("/rect", s.handleElementRect)
			r.Get("/selected", s.handleSelected)
			r.Get("/enabled", s.handleEnabled)
			r.Get("/displayed", s.handleDisplayed)
			r.Post("/click", s.handleClick)
			r.Post("/clear", s.handleClear)
			r.Post("/value", s.handleSendKeys)
			r.Post("/file", s.handleFile)
			r.Get("/screenshot", s.handleScreenshot)
		})

		r.Post("/execute/sync", s.handleExecute(false))
		r.Post("/execute/async", s.handleExecute(true))

		r.Get("/cookie", s.handleAllCookies)
		r.Post("/cookie", s.handleAddCookie)
		r.Delete("/cookie", s.handleDeleteAllCookies)
		r.Get("/cookie/{name}", s.handleGetCookie)
		r.Delete("/cookie/{name}", s.handleDeleteCookie)

		r.Post("/alert/accept", s.handleCloseAlert)
		r.Post("/alert/dismiss", s.handleCloseAlert)
		r.Get("/alert/text", s.handleAlertText)
		r.Post("/alert/text", s.handleSetAlertText)

		r.Get("/screenshot", s.handleScreenshot)
		r.Post("/print", s.handlePrint)

		r.Post("/actions", s.handlePerformActions)
		r.Delete("/actions", s.handleReleaseActions)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, "unknown command", "no command for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "unknown method", r.Method+" is not allowed on "+r.URL.Path)
	})
	return r
}

// record keeps a copy of every request.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// overridden serves canned responses registered with Respond.
func (s *Server) overridden(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var hit *override
		for i := range s.overrides {
			o := &s.overrides[i]
			if o.method == r.Method && (r.URL.Path == o.path || strings.HasSuffix(r.URL.Path, o.path)) {
				hit = o
			}
		}
		s.mu.Unlock()
		if hit == nil {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(hit.status)
		io.WriteString(w, hit.body)
	})
}

// Respond makes the server answer every method request whose path is path,
// or ends with path, with status and body verbatim. Later registrations
// win.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = append(s.overrides, override{method: method, path: path, status: status, body: body})
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or a zero Request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// ClearRequests forgets the recorded requests.
func (s *Server) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// SessionCount is the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Actions returns the action sequences last performed in session sid.
func (s *Server) Actions(sid string) []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sid]; ok {
		return sess.actions
	}
	return nil
}

// AddPage serves p at url. Elements get their ids here.
func (s *Server) AddPage(url string, p *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.url = url
	p.walk(func(e *Element, parent *Element) {
		e.id = uuid.NewString()
		e.page = p
		e.parent = parent
		e.value = e.Attrs["value"]
		s.elements[e.id] = e
	})
	s.pages[url] = p
}

// Page returns the page registered at url.
func (s *Server) Page(url string) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[url]
}

func reply(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, err := json.Marshal(map[string]interface{}{"value": v})
	if err != nil {
		fail(w, http.StatusInternalServerError, "unknown error", err.Error())
		return
	}
	w.Write(data)
}

func fail(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	data, _ := json.Marshal(map[string]interface{}{
		"value": map[string]interface{}{
			"error":      code,
			"message":    message,
			"stacktrace": "",
		},
	})
	w.Write(data)
}

// decode reads a JSON object body. It writes an invalid argument error and
// returns false when the body is not one.
func decode(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var m map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil || m == nil {
		fail(w, http.StatusBadRequest, "invalid argument", "body is not a JSON object")
		return nil, false
	}
	return m, true
}

func elementRef(e *Element) map[string]interface{} {
	return map[string]interface{}{elementKey: e.id}
}
