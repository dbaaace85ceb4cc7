// Package auth implements the HTTP Basic authentication gate for shorten requests.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"scratch-shortener/config"
)

const (
	basicScheme = "Basic "
	realm       = "scratch-shortener"
)

// BasicAuth checks Authorization header values against one expected credential pair.
// It holds no mutable state and is safe for concurrent use.
type BasicAuth struct {
	username []byte
	password []byte
}

// NewBasicAuth creates a BasicAuth accepting only creds.
func NewBasicAuth(creds config.Credentials) *BasicAuth {
	return &BasicAuth{
		username: []byte(creds.Username),
		password: []byte(creds.Password),
	}
}

// Authorize reports whether header carries exactly the expected username and password.
// A missing header, a different scheme, bad Base64 or a payload without a colon all fail.
func (a *BasicAuth) Authorize(header string) bool {
	if len(header) < len(basicScheme) || !strings.EqualFold(header[:len(basicScheme)], basicScheme) {
		return false
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(basicScheme):]))
	if err != nil {
		return false
	}

	username, password, ok := strings.Cut(string(payload), ":")
	if !ok {
		return false
	}

	// Both comparisons always run so timing does not reveal which field was wrong.
	userOK := subtle.ConstantTimeCompare([]byte(username), a.username)
	passOK := subtle.ConstantTimeCompare([]byte(password), a.password)
	return userOK&passOK == 1
}

// Challenge returns the WWW-Authenticate value sent with 401 responses.
func (a *BasicAuth) Challenge() string {
	return `Basic realm="` + realm + `"`
}
