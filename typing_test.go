// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder replaces time.Sleep and keeps every requested pause.
type sleepRecorder []time.Duration

func (s *sleepRecorder) sleep(d time.Duration) { *s = append(*s, d) }

func TestWait(t *testing.T) {
	var slept sleepRecorder
	c := NewClient("http://driver:4444", WithSleeper(slept.sleep))
	c.Wait(0)
	c.Wait(-time.Second)
	c.Wait(250 * time.Millisecond)
	assert.Equal(t, sleepRecorder{250 * time.Millisecond}, slept)
}

func TestSendKeysSlowly(t *testing.T) {
	var slept sleepRecorder
	c, ft := newFakeClient(200, `{"value":null}`,
		WithSleeper(slept.sleep),
		WithRand(rand.New(rand.NewSource(1))),
		WithTypingJitter(20*time.Millisecond))
	c.sid = "S1"

	require.NoError(t, c.SendKeysSlowly("E1", "héllo", 100*time.Millisecond))

	require.Len(t, ft.calls, 5, "one request per character")
	want := []string{"h", "é", "l", "l", "o"}
	for i, call := range ft.calls {
		assert.Equal(t, "POST", call.method)
		assert.Equal(t, "http://driver:4444/session/S1/element/E1/value", call.url)
		body := mustParse(t, string(call.body))
		text := mustGet(t, body, "text")
		assert.Equal(t, StringValue(want[i]).String(), text.String())
	}
	require.Len(t, slept, 5)
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

func TestSendKeysSlowlyStopsOnError(t *testing.T) {
	var slept sleepRecorder
	c, ft := newFakeClient(200, `{}`, WithSleeper(slept.sleep))
	c.sid = "S1"
	ft.err = errors.New("connection reset")

	err := c.SendKeysSlowly("E1", "abc", DefaultKeyDelay)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Len(t, ft.calls, 1)
	assert.Empty(t, slept)
}

func TestKeyDelay(t *testing.T) {
	c := NewClient("http://driver:4444", WithRand(rand.New(rand.NewSource(42))), WithTypingJitter(30*time.Millisecond))
	seen := map[time.Duration]bool{}
	for i := 0; i < 200; i++ {
		d := c.keyDelay(50 * time.Millisecond)
		assert.GreaterOrEqual(t, d, 20*time.Millisecond)
		assert.LessOrEqual(t, d, 80*time.Millisecond)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1, "delays vary")

	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, c.keyDelay(10*time.Millisecond), time.Duration(0), "never negative")
	}

	fixed := NewClient("http://driver:4444", WithTypingJitter(0))
	assert.Equal(t, DefaultKeyDelay, fixed.keyDelay(DefaultKeyDelay))
}
