// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wdtest

import "strings"

// Page is a document the server can navigate to.
type Page struct {
	Title    string
	Source   string
	Elements []*Element

	url string
}

// Element is a node of a Page. Locators match it as follows: "css
// selector" against CSS or Tag, "xpath" against XPath, "tag name" against
// Tag, and the link text strategies against Text of "a" elements.
type Element struct {
	Tag      string
	CSS      string
	XPath    string
	Text     string
	Attrs    map[string]string
	Props    map[string]interface{}
	Style    map[string]string
	Rect     [4]float64
	Selected bool
	Disabled bool
	Hidden   bool
	Children []*Element

	id     string
	page   *Page
	parent *Element
	value  string
	files  []string
}

// ID is the reference the server hands out for e.
func (e *Element) ID() string { return e.id }

// Value is the current value of an input, after typing and clearing.
func (e *Element) Value() string { return e.value }

// Files are the paths last set on a file input.
func (e *Element) Files() []string { return e.files }

func (p *Page) walk(fn func(e, parent *Element)) {
	var visit func(list []*Element, parent *Element)
	visit = func(list []*Element, parent *Element) {
		for _, e := range list {
			fn(e, parent)
			visit(e.Children, e)
		}
	}
	visit(p.Elements, nil)
}

// find returns the elements under roots, in document order, that match the
// locator. ok is false for an unknown strategy.
func find(roots []*Element, using, value string) (found []*Element, ok bool) {
	var match func(e *Element) bool
	switch using {
	case "css selector":
		match = func(e *Element) bool { return e.CSS == value || e.Tag == value }
	case "xpath":
		match = func(e *Element) bool { return e.XPath != "" && e.XPath == value }
	case "tag name":
		match = func(e *Element) bool { return strings.EqualFold(e.Tag, value) }
	case "link text":
		match = func(e *Element) bool { return e.Tag == "a" && strings.TrimSpace(e.Text) == value }
	case "partial link text":
		match = func(e *Element) bool { return e.Tag == "a" && strings.Contains(e.Text, value) }
	default:
		return nil, false
	}
	var visit func(list []*Element)
	visit = func(list []*Element) {
		for _, e := range list {
			if match(e) {
				found = append(found, e)
			}
			visit(e.Children)
		}
	}
	visit(roots)
	return found, true
}

func (e *Element) attribute(name string) (string, bool) {
	if name == "value" && e.Tag == "input" {
		return e.value, true
	}
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *Element) property(name string) (interface{}, bool) {
	switch name {
	case "value":
		return e.value, true
	case "checked":
		return e.Selected, true
	case "disabled":
		return e.Disabled, true
	case "tagName":
		return strings.ToUpper(e.Tag), true
	}
	v, ok := e.Props[name]
	return v, ok
}

func (e *Element) rect() map[string]interface{} {
	return map[string]interface{}{
		"x":      e.Rect[0],
		"y":      e.Rect[1],
		"width":  e.Rect[2],
		"height": e.Rect[3],
	}
}

func (e *Element) toggles() bool {
	t := e.Attrs["type"]
	return e.Tag == "option" || (e.Tag == "input" && (t == "checkbox" || t == "radio"))
}
