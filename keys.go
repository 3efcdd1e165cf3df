// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

// Special keys for SendKeys and key actions. They are the code points the
// WebDriver key table assigns to each non-printable key.
const (
	KeyNull      = "\uE000"
	KeyCancel    = "\uE001"
	KeyHelp      = "\uE002"
	KeyBackspace = "\uE003"
	KeyTab       = "\uE004"
	KeyClear     = "\uE005"
	KeyReturn    = "\uE006"
	KeyEnter     = "\uE007"
	KeyShift     = "\uE008"
	KeyControl   = "\uE009"
	KeyAlt       = "\uE00A"
	KeyPause     = "\uE00B"
	KeyEscape    = "\uE00C"
	KeySpace     = "\uE00D"
	KeyPageUp    = "\uE00E"
	KeyPageDown  = "\uE00F"
	KeyEnd       = "\uE010"
	KeyHome      = "\uE011"
	KeyLeft      = "\uE012"
	KeyUp        = "\uE013"
	KeyRight     = "\uE014"
	KeyDown      = "\uE015"
	KeyInsert    = "\uE016"
	KeyDelete    = "\uE017"
	KeySemicolon = "\uE018"
	KeyEquals    = "\uE019"
	KeyF1        = "\uE031"
	KeyF2        = "\uE032"
	KeyF3        = "\uE033"
	KeyF4        = "\uE034"
	KeyF5        = "\uE035"
	KeyF6        = "\uE036"
	KeyF7        = "\uE037"
	KeyF8        = "\uE038"
	KeyF9        = "\uE039"
	KeyF10       = "\uE03A"
	KeyF11       = "\uE03B"
	KeyF12       = "\uE03C"
	KeyMeta      = "\uE03D"
)

// KeyAction builds one "keyDown" or "keyUp" item of a key input source.
func KeyAction(typ, key string) Value {
	return ObjectValue(map[string]Value{
		"type":  StringValue(typ),
		"value": StringValue(key),
	})
}

// KeySequence is an action sequence that presses and releases each key of
// keys in turn, for use with PerformActions.
func KeySequence(id string, keys ...string) Value {
	actions := make([]Value, 0, 2*len(keys))
	for _, k := range keys {
		actions = append(actions, KeyAction("keyDown", k), KeyAction("keyUp", k))
	}
	return ArrayValue(ObjectValue(map[string]Value{
		"type":    StringValue("key"),
		"id":      StringValue(id),
		"actions": ArrayValue(actions...),
	}))
}
