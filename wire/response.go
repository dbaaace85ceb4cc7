package wire

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// headerNewlineToSpace keeps client-supplied values such as a redirect target from splitting the response.
var headerNewlineToSpace = strings.NewReplacer("\n", " ", "\r", " ")

// Response is an HTTP response to be serialized onto a connection.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// OmitBody keeps Content-Length but skips the body, as required for HEAD.
	OmitBody bool
}

// NewResponse returns an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{StatusCode: status, Header: make(http.Header)}
}

// Text returns a text/plain response.
func Text(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}

// JSON returns an application/json response encoding v, or a 500 if v cannot be encoded.
func JSON(status int, v interface{}) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "application/json")
	resp.Body = body
	return resp
}

// Redirect returns a redirect to location with the given 3xx status.
func Redirect(status int, location string) *Response {
	resp := NewResponse(status)
	resp.Header.Set("Location", location)
	return resp
}

// WriteTo serializes the response. Content-Length and Connection: close are always
// set by WriteTo and override any values in Header.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	reason := http.StatusText(r.StatusCode)
	if reason == "" {
		reason = "status code " + strconv.Itoa(r.StatusCode)
	}
	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(r.StatusCode))
	buf.WriteByte(' ')
	buf.WriteString(reason)
	buf.WriteString("\r\n")

	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	header.Set("Connection", "close")

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range header[k] {
			buf.WriteString(k)
			buf.WriteString(": ")
			buf.WriteString(strings.TrimSpace(headerNewlineToSpace.Replace(v)))
			buf.WriteString("\r\n")
		}
	}
	buf.WriteString("\r\n")

	if !r.OmitBody {
		buf.Write(r.Body)
	}

	return buf.WriteTo(w)
}
