// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"fmt"
	"strconv"
)

// ErrorCode is the "error" string a WebDriver server puts in the body of a
// failed command.
type ErrorCode string

const (
	ElementClickIntercepted ErrorCode = "element click intercepted"
	ElementNotInteractable  ErrorCode = "element not interactable"
	InsecureCertificate     ErrorCode = "insecure certificate"
	InvalidArgument         ErrorCode = "invalid argument"
	InvalidCookieDomain     ErrorCode = "invalid cookie domain"
	InvalidElementState     ErrorCode = "invalid element state"
	InvalidSelector         ErrorCode = "invalid selector"
	InvalidSessionID        ErrorCode = "invalid session id"
	JavaScriptError         ErrorCode = "javascript error"
	MoveTargetOutOfBounds   ErrorCode = "move target out of bounds"
	NoSuchAlert             ErrorCode = "no such alert"
	NoSuchCookie            ErrorCode = "no such cookie"
	NoSuchElement           ErrorCode = "no such element"
	NoSuchFrame             ErrorCode = "no such frame"
	NoSuchWindow            ErrorCode = "no such window"
	ScriptTimeout           ErrorCode = "script timeout"
	SessionNotCreated       ErrorCode = "session not created"
	StaleElementReference   ErrorCode = "stale element reference"
	Timeout                 ErrorCode = "timeout"
	UnableToSetCookie       ErrorCode = "unable to set cookie"
	UnableToCaptureScreen   ErrorCode = "unable to capture screen"
	UnexpectedAlertOpen     ErrorCode = "unexpected alert open"
	UnknownCommand          ErrorCode = "unknown command"
	UnknownError            ErrorCode = "unknown error"
	UnknownMethod           ErrorCode = "unknown method"
	UnsupportedOperation    ErrorCode = "unsupported operation"
)

var errorCodeStrings = map[ErrorCode]string{
	ElementClickIntercepted: "The element could not be clicked because another element would receive the click.",
	ElementNotInteractable:  "The element is not pointer or keyboard interactable.",
	InsecureCertificate:     "Navigation hit a certificate warning.",
	InvalidArgument:         "The arguments passed to a command are invalid or malformed.",
	InvalidCookieDomain:     "An illegal attempt was made to set a cookie under a different domain than the current page.",
	InvalidElementState:     "The element is in a state that does not allow the command.",
	InvalidSelector:         "Argument was an invalid selector.",
	InvalidSessionID:        "The session is either terminated or not started.",
	JavaScriptError:         "An error occurred while executing user supplied JavaScript.",
	MoveTargetOutOfBounds:   "The target for mouse interaction is outside the viewport.",
	NoSuchAlert:             "An attempt was made to operate on a modal dialog when one was not open.",
	NoSuchCookie:            "No cookie matching the given path name was found.",
	NoSuchElement:           "An element could not be located on the page using the given search parameters.",
	NoSuchFrame:             "A command to switch to a frame could not be satisfied because the frame could not be found.",
	NoSuchWindow:            "A command to switch to a window could not be satisfied because the window could not be found.",
	ScriptTimeout:           "A script did not complete before its timeout expired.",
	SessionNotCreated:       "A new session could not be created.",
	StaleElementReference:   "The referenced element is no longer attached to the DOM.",
	Timeout:                 "An operation did not complete before its timeout expired.",
	UnableToSetCookie:       "A command to set a cookie's value could not be satisfied.",
	UnableToCaptureScreen:   "A screen capture was made impossible.",
	UnexpectedAlertOpen:     "A modal dialog was open, blocking this operation.",
	UnknownCommand:          "A command could not be executed because the remote end is not aware of it.",
	UnknownError:            "An unknown error occurred in the remote end while processing the command.",
	UnknownMethod:           "The requested command matched a known URL but did not match a method for that URL.",
	UnsupportedOperation:    "Indicates that a command that should have executed properly cannot be supported.",
}

// Description is the human readable meaning of a known error code.
func (c ErrorCode) Description() string {
	if s, ok := errorCodeStrings[c]; ok {
		return s
	}
	return "unknown error code: " + string(c)
}

// UsageError reports a call the client refused to send, such as a
// session-scoped command without a session.
type UsageError struct {
	Op      string
	Message string
}

func (e *UsageError) Error() string {
	if e.Op == "" {
		return "webdriver: " + e.Message
	}
	return "webdriver: " + e.Op + ": " + e.Message
}

// TransportError wraps a failure of the underlying transport: nothing came
// back from the server.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webdriver: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is returned for any response status outside [200, 300).
// Body is the raw response, kept verbatim for diagnostics.
type ProtocolError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *ProtocolError) Error() string {
	return "HTTP " + strconv.Itoa(e.StatusCode) + " error on " + e.Method + " " + e.Path + ": " + string(e.Body)
}

// ErrorCode returns the W3C error code carried by the body, or "" if the
// body does not follow the {"value": {"error": ...}} shape.
func (e *ProtocolError) ErrorCode() ErrorCode {
	code, _ := e.detail("error")
	return ErrorCode(code)
}

// Message returns the server's message for the failure, if any.
func (e *ProtocolError) Message() string {
	msg, _ := e.detail("message")
	return msg
}

func (e *ProtocolError) detail(field string) (string, bool) {
	body, err := ParseValue(e.Body)
	if err != nil {
		return "", false
	}
	if inner, ok := body.Get("value"); ok {
		body = inner
	}
	f, ok := body.Get(field)
	if !ok {
		return "", false
	}
	s, err := f.AsString()
	return s, err == nil
}

// MalformedResponseError is returned when a successful response is not
// JSON, or its value is not of the type the command promises.
type MalformedResponseError struct {
	Method string
	Path   string
	Body   []byte
	Err    error
}

func (e *MalformedResponseError) Error() string {
	body := string(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("webdriver: malformed response to %s %s: %v: %s", e.Method, e.Path, e.Err, body)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Base64Error reports a character outside the base64 alphabet.
type Base64Error struct {
	Pos  int
	Char byte
}

func (e *Base64Error) Error() string {
	return fmt.Sprintf("webdriver: invalid base64 character %q at offset %d", e.Char, e.Pos)
}
