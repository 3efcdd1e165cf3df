// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wdtest

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ScriptFunc answers one script. args are the decoded JSON arguments.
type ScriptFunc func(args []interface{}) (interface{}, error)

// HandleScript makes the server answer script with fn, for both the sync
// and the async command.
func (s *Server) HandleScript(script string, fn ScriptFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[strings.TrimSpace(script)] = fn
}

var (
	sumLiteral = regexp.MustCompile(`^return\s+(-?\d+(?:\.\d+)?)\s*\+\s*(-?\d+(?:\.\d+)?);?$`)
	argIndex   = regexp.MustCompile(`^return\s+arguments\[(\d+)\];?$`)
	alertCall  = regexp.MustCompile(`^(?:window\.)?(alert|confirm|prompt)\((['"])(.*)['"]\);?$`)
	asyncDone  = regexp.MustCompile(`^(?:var\s+\w+\s*=\s*)?arguments\[arguments\.length\s*-\s*1\]\((.*)\);?$`)
)

// evaluate runs the few script shapes the server understands.
func (s *Server) evaluate(sess *session, script string, args []interface{}, async bool) (interface{}, error) {
	s.mu.Lock()
	fn, ok := s.scripts[script]
	s.mu.Unlock()
	if ok {
		if async && len(args) > 0 {
			args = args[:len(args)-1:len(args)-1]
		}
		return fn(args)
	}
	if async {
		m := asyncDone.FindStringSubmatch(script)
		if m == nil {
			return nil, errors.New("async script never calls its callback")
		}
		inner := strings.TrimSpace(m[1])
		if inner == "" {
			return nil, nil
		}
		return s.evaluate(sess, "return "+inner, args, false)
	}

	switch script {
	case "return document.title", "return document.title;":
		if p := s.currentPage(sess); p != nil {
			return p.Title, nil
		}
		return "", nil
	case "return document.URL", "return window.location.href":
		s.mu.Lock()
		defer s.mu.Unlock()
		return sess.url(), nil
	case "return arguments.length":
		return float64(len(args)), nil
	case "return arguments[0] + arguments[1]", "return arguments[0] + arguments[1];":
		if len(args) < 2 {
			return nil, errors.New("expected two arguments")
		}
		return plus(args[0], args[1])
	case "return null", "return", "":
		return nil, nil
	}
	if m := sumLiteral.FindStringSubmatch(script); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[2], 64)
		return a + b, nil
	}
	if m := argIndex.FindStringSubmatch(script); m != nil {
		i, _ := strconv.Atoi(m[1])
		if i >= len(args) {
			return nil, nil
		}
		return args[i], nil
	}
	if m := alertCall.FindStringSubmatch(script); m != nil {
		text := m[3]
		s.mu.Lock()
		sess.alert = &text
		s.mu.Unlock()
		return nil, nil
	}
	if strings.HasPrefix(script, "throw ") {
		return nil, errors.New("uncaught " + strings.TrimSuffix(strings.TrimPrefix(script, "throw "), ";"))
	}
	if strings.HasPrefix(script, "return ") {
		lit := strings.TrimSuffix(strings.TrimPrefix(script, "return "), ";")
		var v interface{}
		if err := json.Unmarshal([]byte(lit), &v); err == nil {
			return v, nil
		}
	}
	return nil, errors.New("unsupported script: " + script)
}

func plus(a, b interface{}) (interface{}, error) {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		return fa + fb, nil
	}
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr || bStr {
		if !aStr {
			sa = toString(a)
		}
		if !bStr {
			sb = toString(b)
		}
		return sa + sb, nil
	}
	return nil, errors.New("cannot add these arguments")
}

func toString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
