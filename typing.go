// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import "time"

// DefaultKeyDelay is the usual pause between characters for SendKeysSlowly.
const DefaultKeyDelay = 100 * time.Millisecond

// Wait blocks the caller for d.
func (c *Client) Wait(d time.Duration) {
	if d > 0 {
		c.sleep(d)
	}
}

// SendKeysSlowly types text into an element one character at a time,
// pausing baseDelay plus a random jitter after each character. It is meant
// for pages that react to every keystroke.
func (c *Client) SendKeysSlowly(eid, text string, baseDelay time.Duration) error {
	for _, ch := range text {
		if err := c.SendKeys(eid, string(ch)); err != nil {
			return err
		}
		c.Wait(c.keyDelay(baseDelay))
	}
	return nil
}

// keyDelay is base shifted uniformly within [-jitter, +jitter], never negative.
func (c *Client) keyDelay(base time.Duration) time.Duration {
	d := base
	if c.jitter > 0 && c.rand != nil {
		d += time.Duration(c.rand.Int63n(int64(2*c.jitter)+1)) - c.jitter
	}
	if d < 0 {
		d = 0
	}
	return d
}
