// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ElementKey is the key under which the server wraps an element reference.
const ElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Transport performs one HTTP round trip. It returns the status code and
// the raw response body; a non-nil error means no response was obtained.
type Transport interface {
	Send(method, url string, header http.Header, body []byte) (int, []byte, error)
}

// HTTPTransport is the Transport used by default, backed by net/http.
type HTTPTransport struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

func (t *HTTPTransport) Send(method, url string, header http.Header, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			request.Header.Add(k, v)
		}
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(request)
	if err != nil {
		return 0, nil, err
	}
	defer response.Body.Close()
	buf, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, nil, err
	}
	return response.StatusCode, buf, nil
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport = &HTTPTransport{Client: hc} }
}

// WithTimeout bounds every round trip of the HTTP transport. Options apply
// in order: it must come after WithHTTPClient, and it sets the timeout on a
// copy so the caller's http.Client is left alone. It has no effect on a
// transport supplied with WithTransport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if t, ok := c.transport.(*HTTPTransport); ok {
			hc := http.Client{}
			if t.Client != nil {
				hc = *t.Client
			}
			hc.Timeout = d
			c.transport = &HTTPTransport{Client: &hc}
		}
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger traces every round trip at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleeper replaces time.Sleep for Wait and SendKeysSlowly.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithRand sets the random source for typing jitter.
func WithRand(r *rand.Rand) Option {
	return func(c *Client) { c.rand = r }
}

// WithTypingJitter sets the maximum deviation from the base delay between
// characters in SendKeysSlowly. Default: 20ms.
func WithTypingJitter(d time.Duration) Option {
	return func(c *Client) { c.jitter = d }
}

// Client talks to one WebDriver server and owns at most one session.
// A Client is not safe for concurrent use; independent clients are.
type Client struct {
	url          string
	sid          string
	capabilities Value

	transport Transport
	userAgent string
	logger    *zap.Logger

	sleep  func(time.Duration)
	rand   *rand.Rand
	jitter time.Duration
}

// NewClient returns a client for the server at remoteURL, for instance
// "http://localhost:4444".
func NewClient(remoteURL string, opts ...Option) *Client {
	c := &Client{
		url:       strings.TrimSuffix(remoteURL, "/"),
		transport: &HTTPTransport{Client: &http.Client{}},
		logger:    zap.NewNop(),
		sleep:     time.Sleep,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		jitter:    20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL is the base URL of the server.
func (c *Client) URL() string { return c.url }

// SessionID is the id of the active session, or "" when there is none.
func (c *Client) SessionID() string { return c.sid }

// Capabilities are the capabilities the server reported when the active
// session was created.
func (c *Client) Capabilities() Value { return c.capabilities }

// dispatch performs one round trip and returns the unwrapped payload.
func (c *Client) dispatch(method, path string, payload *Value) (Value, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return Value{}, &UsageError{Op: method + " " + path, Message: "unsupported HTTP method"}
	}
	url := c.url + path
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.userAgent != "" {
		header.Set("User-Agent", c.userAgent)
	}
	var body []byte
	if payload != nil {
		var err error
		if body, err = payload.MarshalJSON(); err != nil {
			return Value{}, fmt.Errorf("webdriver: encode %s %s: %w", method, path, err)
		}
		header.Set("Content-Type", "application/json;charset=utf-8")
	}
	c.logger.Debug(">> "+method+" "+url, zap.String("body", head(body)))

	status, buf, err := c.transport.Send(method, url, header, body)
	if err != nil {
		return Value{}, &TransportError{Method: method, Path: path, Err: err}
	}
	c.logger.Debug("<< "+method+" "+url, zap.Int("status", status), zap.String("body", head(buf)))

	if status < 200 || status >= 300 {
		return Value{}, &ProtocolError{StatusCode: status, Method: method, Path: path, Body: buf}
	}
	resp, err := ParseValue(buf)
	if err != nil {
		return Value{}, &MalformedResponseError{Method: method, Path: path, Body: buf, Err: err}
	}
	if v, ok := resp.Get("value"); ok {
		return v, nil
	}
	return resp, nil
}

// reply is an unwrapped payload together with the request that produced
// it, so narrowing failures can name the command.
type reply struct {
	Value
	method string
	path   string
}

func (r reply) malformed(err error) error {
	return &MalformedResponseError{Method: r.method, Path: r.path, Body: []byte(r.Value.String()), Err: err}
}

func (r reply) str() (string, error) {
	s, err := r.AsString()
	if err != nil {
		return "", r.malformed(err)
	}
	return s, nil
}

func (r reply) boolean() (bool, error) {
	b, err := r.AsBool()
	if err != nil {
		return false, r.malformed(err)
	}
	return b, nil
}

func (r reply) strs() ([]string, error) {
	s, err := r.AsStringSlice()
	if err != nil {
		return nil, r.malformed(err)
	}
	return s, nil
}

func (r reply) array() ([]Value, error) {
	items, err := r.AsArray()
	if err != nil {
		return nil, r.malformed(err)
	}
	return items, nil
}

func (r reply) element() (string, error) {
	id, err := elementID(r.Value)
	if err != nil {
		return "", r.malformed(err)
	}
	return id, nil
}

func (r reply) elements() ([]string, error) {
	items, err := r.array()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(items))
	for i, item := range items {
		if ids[i], err = elementID(item); err != nil {
			return nil, r.malformed(err)
		}
	}
	return ids, nil
}

func elementID(v Value) (string, error) {
	if _, err := v.AsObject(); err != nil {
		return "", err
	}
	ref, ok := v.Get(ElementKey)
	if !ok {
		return "", errors.New("element reference has no " + ElementKey + " key")
	}
	return ref.AsString()
}

// ElementReference wraps an element id the way the server expects it in
// frame targets and script arguments.
func ElementReference(eid string) Value {
	return ObjectValue(map[string]Value{ElementKey: StringValue(eid)})
}

// do runs a command scoped to the active session. format is the path below
// /session/{sid}; it fails without any network activity when there is no
// session.
func (c *Client) do(method string, payload *Value, format string, args ...interface{}) (reply, error) {
	sub := format
	if len(args) > 0 {
		sub = fmt.Sprintf(format, args...)
	}
	if c.sid == "" {
		return reply{}, &UsageError{Op: method + " /session/{sid}" + sub, Message: "session not created"}
	}
	path := "/session/" + c.sid + sub
	v, err := c.dispatch(method, path, payload)
	if err != nil {
		return reply{}, err
	}
	return reply{Value: v, method: method, path: path}, nil
}

// typing saver
func params(fields map[string]Value) *Value {
	v := ObjectValue(fields)
	return &v
}

func emptyParams() *Value { return params(nil) }

// DefaultCapabilities is the session request sent when CreateSession is
// given none: a plain Firefox session.
func DefaultCapabilities() Value {
	return NewCapabilities(ObjectValue(map[string]Value{
		"browserName": StringValue("firefox"),
	}))
}

// NewCapabilities wraps alwaysMatch into a new-session request body.
func NewCapabilities(alwaysMatch Value) Value {
	return ObjectValue(map[string]Value{
		"capabilities": ObjectValue(map[string]Value{
			"alwaysMatch": alwaysMatch,
		}),
	})
}

//Query the server's status. No session is needed.
func (c *Client) GetStatus() (Value, error) {
	return c.dispatch(http.MethodGet, "/status", nil)
}

//Create a new session. A null request sends DefaultCapabilities.
//The session id is read from "sessionId", or from "session_id" for servers
//that use that name. The new id replaces any id already held.
func (c *Client) CreateSession(request Value) (string, error) {
	if request.IsNull() {
		request = DefaultCapabilities()
	}
	v, err := c.dispatch(http.MethodPost, "/session", &request)
	if err != nil {
		return "", err
	}
	sid := lookupSessionID(v)
	if sid == "" {
		return "", &MalformedResponseError{
			Method: http.MethodPost,
			Path:   "/session",
			Body:   []byte(v.String()),
			Err:    errors.New("no session id in response"),
		}
	}
	c.sid = sid
	c.capabilities, _ = v.Get("capabilities")
	c.logger.Debug("session created", zap.String("session", sid))
	return sid, nil
}

func lookupSessionID(v Value) string {
	for _, key := range []string{"sessionId", "session_id"} {
		if f, ok := v.Get(key); ok {
			if s, err := f.AsString(); err == nil && s != "" {
				return s
			}
		}
	}
	return ""
}

//Delete the session. The id is kept if the server refuses, so the call can
//be retried.
func (c *Client) DeleteSession() error {
	if c.sid == "" {
		return &UsageError{Op: "DeleteSession", Message: "no active session"}
	}
	if _, err := c.dispatch(http.MethodDelete, "/session/"+c.sid, nil); err != nil {
		return err
	}
	c.logger.Debug("session deleted", zap.String("session", c.sid))
	c.sid = ""
	c.capabilities = Value{}
	return nil
}
