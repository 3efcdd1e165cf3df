// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Strategy is an element location strategy.
type Strategy string

const (
	//Returns elements matching a CSS selector.
	CSSSelector = Strategy("css selector")
	//Returns anchor elements whose visible text matches the search value.
	LinkText = Strategy("link text")
	//Returns anchor elements whose visible text contains the search value.
	PartialLinkText = Strategy("partial link text")
	//Returns elements whose tag name matches the search value.
	TagName = Strategy("tag name")
	//Returns elements matching an XPath expression.
	XPath = Strategy("xpath")
)

//Server readiness as reported by GetStatus.
type Status struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message"`
}

//A window or element rectangle, in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Expiry   int64  `json:"expiry,omitempty"`
	SameSite string `json:"sameSite,omitempty"`
}

//Session timeouts in milliseconds. Nil fields are left unchanged by SetTimeoutsOf.
type Timeouts struct {
	Script   *int64 `json:"script,omitempty"`
	PageLoad *int64 `json:"pageLoad,omitempty"`
	Implicit *int64 `json:"implicit,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// COMMAND LIST
// Command descriptions are from:
// https://www.w3.org/TR/webdriver2/
////////////////////////////////////////////////////////////////////////////////

//Navigate to a new URL.
func (c *Client) NavigateTo(u string) error {
	_, err := c.do(http.MethodPost, params(map[string]Value{"url": StringValue(u)}), "/url")
	return err
}

//Retrieve the URL of the current page.
func (c *Client) GetCurrentURL() (string, error) {
	r, err := c.do(http.MethodGet, nil, "/url")
	if err != nil {
		return "", err
	}
	return r.str()
}

//Navigate backwards in the browser history, if possible.
func (c *Client) Back() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/back")
	return err
}

//Navigate forwards in the browser history, if possible.
func (c *Client) Forward() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/forward")
	return err
}

//Refresh the current page.
func (c *Client) Refresh() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/refresh")
	return err
}

//Get the current page title.
func (c *Client) GetTitle() (string, error) {
	r, err := c.do(http.MethodGet, nil, "/title")
	if err != nil {
		return "", err
	}
	return r.str()
}

//Get the current page source.
func (c *Client) GetPageSource() (string, error) {
	r, err := c.do(http.MethodGet, nil, "/source")
	if err != nil {
		return "", err
	}
	return r.str()
}

//Configure the session timeouts. Valid keys are "script", "pageLoad" and
//"implicit", in milliseconds.
func (c *Client) SetTimeouts(timeouts Value) error {
	_, err := c.do(http.MethodPost, &timeouts, "/timeouts")
	return err
}

func (c *Client) SetTimeoutsOf(t Timeouts) error {
	v, err := ValueOf(t)
	if err != nil {
		return err
	}
	return c.SetTimeouts(v)
}

//Retrieve the session timeouts.
func (c *Client) GetTimeouts() (Value, error) {
	r, err := c.do(http.MethodGet, nil, "/timeouts")
	return r.Value, err
}

//Retrieve the current window handle.
func (c *Client) GetWindowHandle() (string, error) {
	r, err := c.do(http.MethodGet, nil, "/window")
	if err != nil {
		return "", err
	}
	return r.str()
}

//Retrieve the list of all window handles available to the session.
func (c *Client) GetWindowHandles() ([]string, error) {
	r, err := c.do(http.MethodGet, nil, "/window/handles")
	if err != nil {
		return nil, err
	}
	return r.strs()
}

//Close the current window. The handles of the windows still open are returned.
func (c *Client) CloseWindow() ([]string, error) {
	r, err := c.do(http.MethodDelete, nil, "/window")
	if err != nil {
		return nil, err
	}
	if r.IsNull() {
		return nil, nil
	}
	return r.strs()
}

//Change focus to another window.
func (c *Client) SwitchWindow(handle string) error {
	_, err := c.do(http.MethodPost, params(map[string]Value{"handle": StringValue(handle)}), "/window")
	return err
}

//Open a new top-level browsing context. typ is "tab" or "window" and is a
//hint only; the server reports what it actually opened.
func (c *Client) NewWindow(typ string) (handle, kind string, err error) {
	p := params(map[string]Value{"type": StringValue(typ)})
	r, err := c.do(http.MethodPost, p, "/window/new")
	if err != nil {
		return "", "", err
	}
	h, _ := r.Get("handle")
	if handle, err = h.AsString(); err != nil {
		return "", "", r.malformed(err)
	}
	k, _ := r.Get("type")
	kind, _ = k.AsString()
	return handle, kind, nil
}

//Get the size and position of the current window.
func (c *Client) GetWindowRect() (Value, error) {
	r, err := c.do(http.MethodGet, nil, "/window/rect")
	return r.Value, err
}

//Resize and move the current window. Any of x, y, width and height may be
//given; the server answers with the rectangle it actually applied.
func (c *Client) SetWindowRect(rect Value) (Value, error) {
	r, err := c.do(http.MethodPost, &rect, "/window/rect")
	return r.Value, err
}

//Maximize the current window if not already maximized.
func (c *Client) MaximizeWindow() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/window/maximize")
	return err
}

//Minimize (iconify) the current window.
func (c *Client) MinimizeWindow() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/window/minimize")
	return err
}

func (c *Client) FullscreenWindow() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/window/fullscreen")
	return err
}

//Change focus to another frame on the page. id is null for the top-level
//browsing context, a number for a frame index, or an ElementReference.
func (c *Client) SwitchFrame(id Value) error {
	_, err := c.do(http.MethodPost, params(map[string]Value{"id": id}), "/frame")
	return err
}

//Change focus to the frame element eid.
func (c *Client) SwitchFrameElement(eid string) error {
	return c.SwitchFrame(ElementReference(eid))
}

//Change focus back to parent frame.
func (c *Client) SwitchToParentFrame() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/frame/parent")
	return err
}

func locator(using Strategy, value string) *Value {
	return params(map[string]Value{
		"using": StringValue(string(using)),
		"value": StringValue(value),
	})
}

//Search for an element on the page, starting from the document root.
func (c *Client) FindElement(using Strategy, value string) (string, error) {
	r, err := c.do(http.MethodPost, locator(using, value), "/element")
	if err != nil {
		return "", err
	}
	return r.element()
}

//Search for multiple elements on the page, starting from the document root.
func (c *Client) FindElements(using Strategy, value string) ([]string, error) {
	r, err := c.do(http.MethodPost, locator(using, value), "/elements")
	if err != nil {
		return nil, err
	}
	return r.elements()
}

//Search for an element on the page, starting from the identified element.
func (c *Client) FindChildElement(eid string, using Strategy, value string) (string, error) {
	r, err := c.do(http.MethodPost, locator(using, value), "/element/%s/element", url.PathEscape(eid))
	if err != nil {
		return "", err
	}
	return r.element()
}

//Search for multiple elements on the page, starting from the identified element.
func (c *Client) FindChildElements(eid string, using Strategy, value string) ([]string, error) {
	r, err := c.do(http.MethodPost, locator(using, value), "/element/%s/elements", url.PathEscape(eid))
	if err != nil {
		return nil, err
	}
	return r.elements()
}

//Get the element on the page that currently has focus.
func (c *Client) GetActiveElement() (string, error) {
	r, err := c.do(http.MethodGet, nil, "/element/active")
	if err != nil {
		return "", err
	}
	return r.element()
}

//Get the value of an element's attribute. A missing attribute is null and
//fails to narrow; use GetElementAttributeValue when it may be absent.
func (c *Client) GetElementAttribute(eid, name string) (string, error) {
	r, err := c.elementAttribute(eid, name)
	if err != nil {
		return "", err
	}
	return r.str()
}

//Get the value of an element's attribute, null when it is not set.
func (c *Client) GetElementAttributeValue(eid, name string) (Value, error) {
	r, err := c.elementAttribute(eid, name)
	return r.Value, err
}

func (c *Client) elementAttribute(eid, name string) (reply, error) {
	return c.do(http.MethodGet, nil, "/element/%s/attribute/%s", url.PathEscape(eid), url.PathEscape(name))
}

//Get the value of an element's DOM property as a string.
//Use GetElementPropertyValue for properties of other types or null.
func (c *Client) GetElementProperty(eid, name string) (string, error) {
	r, err := c.elementProperty(eid, name)
	if err != nil {
		return "", err
	}
	return r.str()
}

//Get the value of an element's DOM property, whatever its type.
func (c *Client) GetElementPropertyValue(eid, name string) (Value, error) {
	r, err := c.elementProperty(eid, name)
	return r.Value, err
}

func (c *Client) elementProperty(eid, name string) (reply, error) {
	return c.do(http.MethodGet, nil, "/element/%s/property/%s", url.PathEscape(eid), url.PathEscape(name))
}

//Query the value of an element's computed CSS property.
func (c *Client) GetElementCSSValue(eid, property string) (string, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/css/%s", url.PathEscape(eid), url.PathEscape(property))
	if err != nil {
		return "", err
	}
	return r.str()
}

//Returns the visible text for the element.
func (c *Client) GetElementText(eid string) (string, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/text", url.PathEscape(eid))
	if err != nil {
		return "", err
	}
	return r.str()
}

//Query for an element's tag name.
func (c *Client) GetElementTagName(eid string) (string, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/name", url.PathEscape(eid))
	if err != nil {
		return "", err
	}
	return r.str()
}

//Get the size and position of an element.
func (c *Client) GetElementRect(eid string) (Value, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/rect", url.PathEscape(eid))
	return r.Value, err
}

//Determine if an OPTION element, or an INPUT element of type checkbox or radiobutton is currently selected.
func (c *Client) IsElementSelected(eid string) (bool, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/selected", url.PathEscape(eid))
	if err != nil {
		return false, err
	}
	return r.boolean()
}

//Determine if an element is currently enabled.
func (c *Client) IsElementEnabled(eid string) (bool, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/enabled", url.PathEscape(eid))
	if err != nil {
		return false, err
	}
	return r.boolean()
}

//Determine if an element is currently displayed.
func (c *Client) IsElementDisplayed(eid string) (bool, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/displayed", url.PathEscape(eid))
	if err != nil {
		return false, err
	}
	return r.boolean()
}

//Click on an element.
func (c *Client) ClickElement(eid string) error {
	_, err := c.do(http.MethodPost, emptyParams(), "/element/%s/click", url.PathEscape(eid))
	return err
}

//Clear a TEXTAREA or text INPUT element's value.
func (c *Client) ClearElement(eid string) error {
	_, err := c.do(http.MethodPost, emptyParams(), "/element/%s/clear", url.PathEscape(eid))
	return err
}

//Send a sequence of key strokes to an element. Invalid UTF-8 bytes are
//sent as U+FFFD in both fields.
func (c *Client) SendKeys(eid, text string) error {
	text = strings.ToValidUTF8(text, string(utf8.RuneError))
	keys := make([]Value, 0, len(text))
	for _, k := range text {
		keys = append(keys, StringValue(string(k)))
	}
	p := params(map[string]Value{"text": StringValue(text), "value": ArrayValue(keys...)})
	_, err := c.do(http.MethodPost, p, "/element/%s/value", url.PathEscape(eid))
	return err
}

//Set the files of an INPUT element of type file. Paths are local to the server.
func (c *Client) SetFile(eid string, paths []string) error {
	files, err := ValueOf(paths)
	if err != nil {
		return err
	}
	_, err = c.do(http.MethodPost, params(map[string]Value{"files": files}), "/element/%s/file", url.PathEscape(eid))
	return err
}

func scriptParams(script string, args []Value) *Value {
	return params(map[string]Value{"script": StringValue(script), "args": ArrayValue(args...)})
}

// Inject a snippet of JavaScript into the page for execution in the context of the currently selected frame. The executed script is assumed to be synchronous and the result of evaluating the script is returned to the client.
// The script argument defines the script to execute in the form of a function body. The function will be invoked with the provided args and the values may be accessed via the arguments object in the order specified.
// Elements are passed with ElementReference and come back in the same form.
func (c *Client) ExecuteScript(script string, args ...Value) (Value, error) {
	r, err := c.do(http.MethodPost, scriptParams(script, args), "/execute/sync")
	return r.Value, err
}

// Inject a snippet of JavaScript into the page for execution in the context of the currently selected frame. The executed script is assumed to be asynchronous and must signal that is done by invoking the provided callback, which is always provided as the final argument to the function. The value to this callback will be returned to the client.
func (c *Client) ExecuteAsyncScript(script string, args ...Value) (Value, error) {
	r, err := c.do(http.MethodPost, scriptParams(script, args), "/execute/async")
	return r.Value, err
}

//Retrieve all cookies visible to the current page.
func (c *Client) GetAllCookies() ([]Value, error) {
	r, err := c.do(http.MethodGet, nil, "/cookie")
	if err != nil {
		return nil, err
	}
	return r.array()
}

//Retrieve the cookie with the given name.
func (c *Client) GetCookie(name string) (Value, error) {
	r, err := c.do(http.MethodGet, nil, "/cookie/%s", url.PathEscape(name))
	return r.Value, err
}

//Set a cookie. It needs at least "name" and "value".
func (c *Client) AddCookie(cookie Value) error {
	_, err := c.do(http.MethodPost, params(map[string]Value{"cookie": cookie}), "/cookie")
	return err
}

//Delete the cookie with the given name.
func (c *Client) DeleteCookie(name string) error {
	_, err := c.do(http.MethodDelete, nil, "/cookie/%s", url.PathEscape(name))
	return err
}

//Delete all cookies visible to the current page.
func (c *Client) DeleteAllCookies() error {
	_, err := c.do(http.MethodDelete, nil, "/cookie")
	return err
}

//Accepts the currently displayed alert dialog.
func (c *Client) AcceptAlert() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/alert/accept")
	return err
}

//Dismisses the currently displayed alert dialog.
func (c *Client) DismissAlert() error {
	_, err := c.do(http.MethodPost, emptyParams(), "/alert/dismiss")
	return err
}

//Gets the text of the currently displayed JavaScript alert(), confirm(), or prompt() dialog.
func (c *Client) GetAlertText() (string, error) {
	r, err := c.do(http.MethodGet, nil, "/alert/text")
	if err != nil {
		return "", err
	}
	return r.str()
}

//Sends keystrokes to a JavaScript prompt() dialog.
func (c *Client) SetAlertText(text string) error {
	_, err := c.do(http.MethodPost, params(map[string]Value{"text": StringValue(text)}), "/alert/text")
	return err
}

//Take a screenshot of the current page. The PNG comes back base64 encoded.
func (c *Client) TakeScreenshot() (string, error) {
	r, err := c.do(http.MethodGet, nil, "/screenshot")
	if err != nil {
		return "", err
	}
	return r.str()
}

//Take a screenshot of the visible region of an element, base64 encoded.
func (c *Client) TakeElementScreenshot(eid string) (string, error) {
	r, err := c.do(http.MethodGet, nil, "/element/%s/screenshot", url.PathEscape(eid))
	if err != nil {
		return "", err
	}
	return r.str()
}

//Render the page as a PDF, base64 encoded. options is the W3C print
//parameters object (orientation, scale, page, margin, ...); null sends {}.
func (c *Client) PrintPage(options Value) (string, error) {
	if options.IsNull() {
		options = ObjectValue(nil)
	}
	r, err := c.do(http.MethodPost, &options, "/print")
	if err != nil {
		return "", err
	}
	return r.str()
}

//Save a screenshot of the current page as a PNG file.
func (c *Client) SaveScreenshot(path string) error {
	b64, err := c.TakeScreenshot()
	if err != nil {
		return err
	}
	return Base64ToFile(b64, path)
}

//Save a screenshot of an element as a PNG file.
func (c *Client) SaveElementScreenshot(eid, path string) error {
	b64, err := c.TakeElementScreenshot(eid)
	if err != nil {
		return err
	}
	return Base64ToFile(b64, path)
}

//Print the page to a PDF file.
func (c *Client) SavePDF(options Value, path string) error {
	b64, err := c.PrintPage(options)
	if err != nil {
		return err
	}
	return Base64ToFile(b64, path)
}

//Dispatch a W3C action sequence: an array of input sources, each with its
//own list of actions.
func (c *Client) PerformActions(actions Value) error {
	_, err := c.do(http.MethodPost, params(map[string]Value{"actions": actions}), "/actions")
	return err
}

//Release all keys and pointer buttons that are currently pressed.
func (c *Client) ReleaseActions() error {
	_, err := c.do(http.MethodDelete, nil, "/actions")
	return err
}
