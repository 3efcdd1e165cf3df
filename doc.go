// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package webdriver is a client for the W3C WebDriver protocol: it drives a
// remote browser through a driver server such as chromedriver, geckodriver
// or a Selenium grid.
//
// See https://www.w3.org/TR/webdriver2/
//
// A Client holds one session at a time. Every command is a single HTTP
// round trip; nothing is retried and nothing is cached. Failures come back
// as one of *UsageError (the call was not sent), *TransportError (no
// response), *ProtocolError (non-2xx response) or *MalformedResponseError
// (a 2xx response that could not be read).
//
// Example:
//	chromeDriver := webdriver.NewChromeDriver("/path/to/chromedriver")
//	err := chromeDriver.Start()
//	if err != nil {
//		log.Println(err)
//	}
//	defer chromeDriver.Stop()
//	client := webdriver.NewClient(chromeDriver.URL())
//	caps := webdriver.NewCapabilities(webdriver.MustValueOf(map[string]interface{}{
//		"browserName": "chrome",
//	}))
//	if _, err := client.CreateSession(caps); err != nil {
//		log.Println(err)
//	}
//	defer client.DeleteSession()
//	err = client.NavigateTo("http://golang.org")
//	if err != nil {
//		log.Println(err)
//	}
//	title, err := client.GetTitle()
//
package webdriver
