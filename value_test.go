// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	tests := []struct {
		v    Value
		kind Kind
		json string
	}{
		{Value{}, KindNull, "null"},
		{NullValue(), KindNull, "null"},
		{BoolValue(true), KindBool, "true"},
		{IntValue(-7), KindNumber, "-7"},
		{NumberValue(2.5), KindNumber, "2.5"},
		{NumberValue(math.NaN()), KindNull, "null"},
		{NumberValue(math.Inf(1)), KindNull, "null"},
		{StringValue("a\"b"), KindString, `"a\"b"`},
		{ArrayValue(), KindArray, "[]"},
		{ObjectValue(nil), KindObject, "{}"},
		{ObjectValue(map[string]Value{"b": IntValue(1), "a": NullValue()}), KindObject, `{"a":null,"b":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.v.Kind(), tt.json)
		assert.Equal(t, tt.json, tt.v.String())
	}
}

func TestValueAccessors(t *testing.T) {
	v := mustParse(t, `{"s":"x","n":3,"f":1.5,"b":false,"a":["p","q"],"o":{"k":null},"z":null}`)

	s, err := mustGet(t, v, "s").AsString()
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	n, err := mustGet(t, v, "n").AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	f, err := mustGet(t, v, "f").AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
	_, err = mustGet(t, v, "f").AsInt()
	assert.Error(t, err, "1.5 is not an integer")

	b, err := mustGet(t, v, "b").AsBool()
	require.NoError(t, err)
	assert.False(t, b)

	strs, err := mustGet(t, v, "a").AsStringSlice()
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "q"}, strs)
	assert.Equal(t, 2, mustGet(t, v, "a").Len())
	assert.Equal(t, `"q"`, mustGet(t, v, "a").Index(1).String())
	assert.True(t, mustGet(t, v, "a").Index(5).IsNull())

	obj, err := mustGet(t, v, "o").AsObject()
	require.NoError(t, err)
	assert.True(t, obj["k"].IsNull())

	assert.True(t, v.Has("z"), "a null field is still present")
	assert.False(t, v.Has("missing"))
	_, ok := StringValue("x").Get("s")
	assert.False(t, ok, "Get on a non-object")
}

func TestValueTypeErrors(t *testing.T) {
	v := StringValue("text")
	_, err := v.AsBool()
	var terr *TypeError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindBool, terr.Want)
	assert.Equal(t, KindString, terr.Got)
	assert.Equal(t, "webdriver: value is string, not bool", err.Error())

	_, err = v.AsNumber()
	assert.ErrorAs(t, err, &terr)
	_, err = v.AsArray()
	assert.ErrorAs(t, err, &terr)
	_, err = v.AsObject()
	assert.ErrorAs(t, err, &terr)
	_, err = NullValue().AsString()
	assert.ErrorAs(t, err, &terr, "null is not a string")
	_, err = ArrayValue(StringValue("a"), IntValue(1)).AsStringSlice()
	assert.ErrorAs(t, err, &terr)
}

func TestValueNumbersKeepTheirLiteral(t *testing.T) {
	v := mustParse(t, `[2, 2.0, 12345678901234567890, 1e3]`)
	assert.Equal(t, `[2,2.0,12345678901234567890,1e3]`, v.String())

	two, err := v.Index(1).AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 2, two)
	thousand, err := v.Index(3).AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 1000, thousand)

	assert.True(t, v.Index(0).Equal(v.Index(1)), "2 and 2.0 are the same number")
}

func TestValueOf(t *testing.T) {
	type point struct {
		X int    `json:"x"`
		Y int    `json:"y"`
		L string `json:"label,omitempty"`
	}
	got, err := ValueOf(map[string]interface{}{
		"list":  []interface{}{1, "two", nil, true},
		"strs":  []string{"a"},
		"point": point{X: 1, Y: 2},
		"ptr":   &point{X: 3},
	})
	require.NoError(t, err)
	want := mustParse(t, `{"list":[1,"two",null,true],"strs":["a"],"point":{"x":1,"y":2},"ptr":{"x":3,"y":0}}`)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValueOf mismatch (-want +got):\n%s", diff)
	}

	_, err = ValueOf(make(chan int))
	assert.Error(t, err)
	assert.Panics(t, func() { MustValueOf(make(chan struct{})) })
}

func TestValueDecode(t *testing.T) {
	v := mustParse(t, `{"x":10,"y":20.5,"width":300,"height":200}`)
	var r Rect
	require.NoError(t, v.Decode(&r))
	assert.Equal(t, Rect{X: 10, Y: 20.5, Width: 300, Height: 200}, r)

	c := mustParse(t, `{"name":"n","value":"v","httpOnly":true,"expiry":1700000000}`)
	var cookie Cookie
	require.NoError(t, c.Decode(&cookie))
	assert.Equal(t, Cookie{Name: "n", Value: "v", HTTPOnly: true, Expiry: 1700000000}, cookie)
}

func TestValueJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Payload Value `json:"payload"`
	}
	in := wrapper{Payload: mustParse(t, `{"b":[1,{"c":null}],"a":"x"}`)}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"payload":{"a":"x","b":[1,{"c":null}]}}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, in.Payload.Equal(out.Payload))
}

func TestValueEqual(t *testing.T) {
	a := mustParse(t, `{"k":[1,"x",{"n":null}]}`)
	assert.True(t, a.Equal(mustParse(t, `{"k":[1.0,"x",{"n":null}]}`)))
	assert.False(t, a.Equal(mustParse(t, `{"k":[1,"x",{"n":0}]}`)))
	assert.False(t, a.Equal(mustParse(t, `{"k":[1,"x"]}`)))
	assert.False(t, a.Equal(mustParse(t, `{"j":[1,"x",{"n":null}]}`)))
	assert.False(t, IntValue(0).Equal(BoolValue(false)))
}

func TestValueInterface(t *testing.T) {
	v := mustParse(t, `{"a":[1,"s",true,null]}`)
	assert.Equal(t, map[string]interface{}{"a": []interface{}{1.0, "s", true, nil}}, v.Interface())
}

func mustGet(t *testing.T, v Value, key string) Value {
	t.Helper()
	f, ok := v.Get(key)
	require.True(t, ok, key)
	return f
}
