// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wdtest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const keyBackspace = "\uE003"

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reply(w, map[string]interface{}{"ready": true, "message": "wdtest ready"})
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	var alwaysMatch map[string]interface{}
	if caps, ok := body["capabilities"].(map[string]interface{}); ok {
		alwaysMatch, _ = caps["alwaysMatch"].(map[string]interface{})
	}
	sess := newSession(alwaysMatch)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	value := map[string]interface{}{"capabilities": sess.capabilities}
	switch {
	case s.noSessionID:
	case s.legacySessionKey:
		value["session_id"] = sess.id
	default:
		value["sessionId"] = sess.id
	}
	reply(w, value)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.sessions, sessionOf(r).id)
	s.mu.Unlock()
	reply(w, nil)
}

// -- Navigation --

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	url, ok := body["url"].(string)
	if !ok || url == "" {
		fail(w, http.StatusBadRequest, "invalid argument", "url must be a string")
		return
	}
	s.mu.Lock()
	sessionOf(r).visit(url)
	s.mu.Unlock()
	reply(w, nil)
}

func (s *Server) handleCurrentURL(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, sessionOf(r).url())
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if sess := sessionOf(r); sess.pos > 0 {
		sess.pos--
	}
	s.mu.Unlock()
	reply(w, nil)
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if sess := sessionOf(r); sess.pos < len(sess.history)-1 {
		sess.pos++
	}
	s.mu.Unlock()
	reply(w, nil)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	reply(w, nil)
}

func (s *Server) currentPage(sess *session) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[sess.url()]
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	title := ""
	if p := s.currentPage(sessionOf(r)); p != nil {
		title = p.Title
	}
	reply(w, title)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	source := "<html><head></head><body></body></html>"
	if p := s.currentPage(sessionOf(r)); p != nil && p.Source != "" {
		source = p.Source
	}
	reply(w, source)
}

// -- Timeouts --

func (s *Server) handleGetTimeouts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, sessionOf(r).timeouts)
}

func (s *Server) handleSetTimeouts(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	for k, v := range body {
		switch k {
		case "script", "pageLoad", "implicit":
		default:
			fail(w, http.StatusBadRequest, "invalid argument", "unknown timeout "+k)
			return
		}
		if n, isNum := v.(float64); (!isNum || n < 0) && !(v == nil && k == "script") {
			fail(w, http.StatusBadRequest, "invalid argument", k+" must be a non-negative integer")
			return
		}
	}
	s.mu.Lock()
	sess := sessionOf(r)
	for k, v := range body {
		sess.timeouts[k] = v
	}
	s.mu.Unlock()
	reply(w, nil)
}

// -- Windows and frames --

func (s *Server) handleWindowHandle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	handle := sessionOf(r).window
	s.mu.Unlock()
	if handle == "" {
		fail(w, http.StatusNotFound, "no such window", "the current window was closed")
		return
	}
	reply(w, handle)
}

func (s *Server) handleWindowHandles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, append([]string{}, sessionOf(r).windows...))
}

func (s *Server) handleCloseWindow(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess := sessionOf(r)
	if sess.window == "" {
		s.mu.Unlock()
		fail(w, http.StatusNotFound, "no such window", "the current window was closed")
		return
	}
	remaining := []string{}
	for _, h := range sess.windows {
		if h != sess.window {
			remaining = append(remaining, h)
		}
	}
	sess.windows = remaining
	sess.window = ""
	s.mu.Unlock()
	reply(w, remaining)
}

func (s *Server) handleSwitchWindow(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	handle, ok := body["handle"].(string)
	if !ok {
		fail(w, http.StatusBadRequest, "invalid argument", "handle must be a string")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := sessionOf(r)
	for _, h := range sess.windows {
		if h == handle {
			sess.window = handle
			sess.frame = 0
			reply(w, nil)
			return
		}
	}
	fail(w, http.StatusNotFound, "no such window", "no window "+handle)
}

func (s *Server) handleNewWindow(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	kind, _ := body["type"].(string)
	if kind != "window" {
		kind = "tab"
	}
	handle := uuid.NewString()
	s.mu.Lock()
	sess := sessionOf(r)
	sess.windows = append(sess.windows, handle)
	s.mu.Unlock()
	reply(w, map[string]interface{}{"handle": handle, "type": kind})
}

func (s *Server) handleGetWindowRect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, sessionOf(r).rect)
}

func (s *Server) handleSetWindowRect(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	for _, k := range []string{"x", "y", "width", "height"} {
		if v, present := body[k]; present && v != nil {
			if _, isNum := v.(float64); !isNum {
				fail(w, http.StatusBadRequest, "invalid argument", k+" must be a number")
				return
			}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := sessionOf(r)
	for _, k := range []string{"x", "y", "width", "height"} {
		if v, present := body[k]; present && v != nil {
			sess.rect[k] = v
		}
	}
	reply(w, sess.rect)
}

func (s *Server) handleWindowState(width, height float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		sess := sessionOf(r)
		if width > 0 {
			sess.rect["x"], sess.rect["y"] = 0.0, 0.0
			sess.rect["width"], sess.rect["height"] = width, height
		}
		reply(w, sess.rect)
	}
}

func (s *Server) handleSwitchFrame(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	id, present := body["id"]
	if !present {
		fail(w, http.StatusBadRequest, "invalid argument", "missing id")
		return
	}
	sess := sessionOf(r)
	page := s.currentPage(sess)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := id.(type) {
	case nil:
		sess.frame = 0
	case float64:
		var frames []*Element
		if page != nil {
			frames, _ = find(page.Elements, "tag name", "iframe")
		}
		if t < 0 || int(t) >= len(frames) {
			fail(w, http.StatusNotFound, "no such frame", "no frame at index")
			return
		}
		sess.frame++
	case map[string]interface{}:
		eid, _ := t[elementKey].(string)
		e, known := s.elements[eid]
		if !known || e.page != page {
			fail(w, http.StatusNotFound, "no such element", "unknown frame element "+eid)
			return
		}
		sess.frame++
	default:
		fail(w, http.StatusBadRequest, "invalid argument", "id must be null, a number or an element")
		return
	}
	reply(w, nil)
}

func (s *Server) handleParentFrame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if sess := sessionOf(r); sess.frame > 0 {
		sess.frame--
	}
	s.mu.Unlock()
	reply(w, nil)
}

// -- Elements --

func (s *Server) handleFind(multiple, fromElement bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decode(w, r)
		if !ok {
			return
		}
		using, _ := body["using"].(string)
		value, isString := body["value"].(string)
		if !isString {
			fail(w, http.StatusBadRequest, "invalid argument", "value must be a string")
			return
		}
		var roots []*Element
		if fromElement {
			roots = elementOf(r).Children
		} else if p := s.currentPage(sessionOf(r)); p != nil {
			roots = p.Elements
		}
		found, known := find(roots, using, value)
		if !known {
			fail(w, http.StatusBadRequest, "invalid argument", "unknown location strategy "+using)
			return
		}
		if multiple {
			refs := make([]interface{}, len(found))
			for i, e := range found {
				refs[i] = elementRef(e)
			}
			reply(w, refs)
			return
		}
		if len(found) == 0 {
			fail(w, http.StatusNotFound, "no such element", "no element matches "+using+" "+value)
			return
		}
		reply(w, elementRef(found[0]))
	}
}

func (s *Server) handleActiveElement(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := sessionOf(r).active
	s.mu.Unlock()
	if active == nil {
		fail(w, http.StatusNotFound, "no such element", "no element has focus")
		return
	}
	reply(w, elementRef(active))
}

func (s *Server) handleAttribute(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := elementOf(r).attribute(chi.URLParam(r, "name")); ok {
		reply(w, v)
		return
	}
	reply(w, nil)
}

func (s *Server) handleProperty(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := elementOf(r).property(chi.URLParam(r, "name"))
	reply(w, v)
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	reply(w, elementOf(r).Style[chi.URLParam(r, "name")])
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	e := elementOf(r)
	if e.Hidden {
		reply(w, "")
		return
	}
	reply(w, e.Text)
}

func (s *Server) handleTagName(w http.ResponseWriter, r *http.Request) {
	reply(w, elementOf(r).Tag)
}

func (s *Server) handleElementRect(w http.ResponseWriter, r *http.Request) {
	reply(w, elementOf(r).rect())
}

func (s *Server) handleSelected(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, elementOf(r).Selected)
}

func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	reply(w, !elementOf(r).Disabled)
}

func (s *Server) handleDisplayed(w http.ResponseWriter, r *http.Request) {
	reply(w, !elementOf(r).Hidden)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	e := elementOf(r)
	if e.Hidden {
		fail(w, http.StatusBadRequest, "element not interactable", "element is not displayed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := sessionOf(r)
	sess.active = e
	switch {
	case e.toggles():
		if e.Attrs["type"] == "radio" {
			e.Selected = true
		} else {
			e.Selected = !e.Selected
		}
	case e.Tag == "a" && e.Attrs["href"] != "":
		sess.visit(e.Attrs["href"])
	}
	reply(w, nil)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elementOf(r).value = ""
	reply(w, nil)
}

func (s *Server) handleSendKeys(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	text, ok := body["text"].(string)
	if !ok {
		fail(w, http.StatusBadRequest, "invalid argument", "text must be a string")
		return
	}
	e := elementOf(r)
	if e.Hidden || e.Disabled {
		fail(w, http.StatusBadRequest, "element not interactable", "element cannot receive keys")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range text {
		if string(ch) == keyBackspace {
			if runes := []rune(e.value); len(runes) > 0 {
				e.value = string(runes[:len(runes)-1])
			}
			continue
		}
		e.value += string(ch)
	}
	sessionOf(r).active = e
	reply(w, nil)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	list, ok := body["files"].([]interface{})
	if !ok {
		fail(w, http.StatusBadRequest, "invalid argument", "files must be an array")
		return
	}
	files := make([]string, 0, len(list))
	for _, f := range list {
		name, isString := f.(string)
		if !isString {
			fail(w, http.StatusBadRequest, "invalid argument", "files must be strings")
			return
		}
		files = append(files, name)
	}
	s.mu.Lock()
	elementOf(r).files = files
	s.mu.Unlock()
	reply(w, nil)
}

// -- Script --

func (s *Server) handleExecute(async bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decode(w, r)
		if !ok {
			return
		}
		script, ok := body["script"].(string)
		if !ok {
			fail(w, http.StatusBadRequest, "invalid argument", "script must be a string")
			return
		}
		args, ok := body["args"].([]interface{})
		if !ok {
			fail(w, http.StatusBadRequest, "invalid argument", "args must be an array")
			return
		}
		result, err := s.evaluate(sessionOf(r), strings.TrimSpace(script), args, async)
		if err != nil {
			fail(w, http.StatusInternalServerError, "javascript error", err.Error())
			return
		}
		reply(w, result)
	}
}

// -- Cookies --

func (s *Server) handleAllCookies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, sessionOf(r).sortedCookies())
}

func (s *Server) handleGetCookie(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := sessionOf(r).cookies[name]
	if !ok {
		fail(w, http.StatusNotFound, "no such cookie", "no cookie named "+name)
		return
	}
	reply(w, c)
}

func (s *Server) handleAddCookie(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	cookie, ok := body["cookie"].(map[string]interface{})
	if !ok {
		fail(w, http.StatusBadRequest, "invalid argument", "cookie must be an object")
		return
	}
	name, nameOK := cookie["name"].(string)
	_, valueOK := cookie["value"].(string)
	if !nameOK || !valueOK {
		fail(w, http.StatusBadRequest, "invalid argument", "cookie needs a name and a value")
		return
	}
	if _, ok := cookie["path"]; !ok {
		cookie["path"] = "/"
	}
	s.mu.Lock()
	sessionOf(r).cookies[name] = cookie
	s.mu.Unlock()
	reply(w, nil)
}

func (s *Server) handleDeleteCookie(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(sessionOf(r).cookies, chi.URLParam(r, "name"))
	s.mu.Unlock()
	reply(w, nil)
}

func (s *Server) handleDeleteAllCookies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sessionOf(r).cookies = map[string]map[string]interface{}{}
	s.mu.Unlock()
	reply(w, nil)
}

// -- Alerts --

func (s *Server) handleCloseAlert(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := sessionOf(r)
	if sess.alert == nil {
		fail(w, http.StatusNotFound, "no such alert", "no alert is open")
		return
	}
	sess.alert = nil
	reply(w, nil)
}

func (s *Server) handleAlertText(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := sessionOf(r)
	if sess.alert == nil {
		fail(w, http.StatusNotFound, "no such alert", "no alert is open")
		return
	}
	reply(w, *sess.alert)
}

func (s *Server) handleSetAlertText(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	text, ok := body["text"].(string)
	if !ok {
		fail(w, http.StatusBadRequest, "invalid argument", "text must be a string")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := sessionOf(r)
	if sess.alert == nil {
		fail(w, http.StatusNotFound, "no such alert", "no alert is open")
		return
	}
	sess.prompt = text
	reply(w, nil)
}

// -- Media --

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	reply(w, screenshotBase64())
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	if o, present := body["orientation"]; present && o != "portrait" && o != "landscape" {
		fail(w, http.StatusBadRequest, "invalid argument", "orientation must be portrait or landscape")
		return
	}
	title := ""
	if p := s.currentPage(sessionOf(r)); p != nil {
		title = p.Title
	}
	reply(w, pdfBase64(title))
}

// -- Actions --

func (s *Server) handlePerformActions(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	actions, ok := body["actions"].([]interface{})
	if !ok {
		fail(w, http.StatusBadRequest, "invalid argument", "actions must be an array")
		return
	}
	s.mu.Lock()
	sessionOf(r).actions = actions
	s.mu.Unlock()
	reply(w, nil)
}

func (s *Server) handleReleaseActions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sessionOf(r).actions = nil
	s.mu.Unlock()
	reply(w, nil)
}
