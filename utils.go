// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

const logHeadSize = 1024

// head shortens a body for debug logs.
func head(buf []byte) string {
	if len(buf) > logHeadSize {
		return fmt.Sprintf("%s ...%d more bytes", buf[:logHeadSize], len(buf)-logHeadSize)
	}
	return string(buf)
}

//probe port until get a reply or timeout is up
func probePort(port int, timeout time.Duration) error {
	address := fmt.Sprintf("127.0.0.1:%d", port)
	deadline := time.Now().Add(timeout)
	for {
		if conn, err := net.DialTimeout("tcp", address, time.Second); err == nil {
			return conn.Close()
		}
		if time.Now().After(deadline) {
			return errors.New("start failed: timeout expired waiting for " + address)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// DecodeBase64 decodes standard base64 as found in screenshot and print
// results. Whitespace is skipped, decoding stops at the first '=', and a
// dangling final character that cannot form a byte is dropped. Any other
// character outside the alphabet is an error.
func DecodeBase64(s string) ([]byte, error) {
	var clean strings.Builder
	clean.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '=':
			i = len(s)
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '+', ch == '/':
			clean.WriteByte(ch)
		default:
			return nil, &Base64Error{Pos: i, Char: ch}
		}
	}
	data := clean.String()
	if len(data)%4 == 1 {
		data = data[:len(data)-1]
	}
	return base64.RawStdEncoding.DecodeString(data)
}

// Base64ToFile decodes b64 and writes the bytes to path. A leading ~ in
// path is the user's home directory.
func Base64ToFile(b64, path string) error {
	data, err := DecodeBase64(b64)
	if err != nil {
		return err
	}
	path, err = homedir.Expand(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
