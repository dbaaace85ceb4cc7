// Package wire reads HTTP/1.1 requests from and writes responses to raw connections.
//
// Only the subset the shortener needs is supported: a request line, header
// fields up to an empty line, and a body delimited by Content-Length. Chunked
// transfer encoding, header folding and pipelining are rejected or ignored;
// each connection carries exactly one request.
package wire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// MaxHeaderBytes bounds the request line plus all header lines.
const MaxHeaderBytes = 64 << 10

var (
	// ErrMalformedRequest is wrapped by every error caused by bytes that are not a supported request.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrHeaderTooLarge is returned when the header section exceeds MaxHeaderBytes.
	ErrHeaderTooLarge = fmt.Errorf("%w: header section too large", ErrMalformedRequest)
	// ErrUnsupportedEncoding is returned for requests using Transfer-Encoding.
	ErrUnsupportedEncoding = fmt.Errorf("%w: transfer encoding not supported", ErrMalformedRequest)
	// ErrBodyTooLarge is returned when Content-Length exceeds the configured limit.
	ErrBodyTooLarge = errors.New("request body too large")
)

// Request is a parsed HTTP request.
type Request struct {
	Method   string
	Target   string // request-target exactly as sent
	Path     string // Target without the query
	RawQuery string
	Proto    string
	Header   http.Header
	Body     []byte
}

// ReadRequest parses one request from r. Bodies longer than maxBody bytes are
// refused with ErrBodyTooLarge before being read.
// io.EOF is returned unchanged when the peer closed the connection before sending anything.
func ReadRequest(r *bufio.Reader, maxBody int64) (*Request, error) {
	budget := MaxHeaderBytes

	line, err := readLine(r, &budget)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	for {
		line, err := readLine(r, &budget)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: unexpected end of header section", ErrMalformedRequest)
			}
			return nil, err
		}
		if line == "" {
			break
		}
		if err := parseHeaderLine(req.Header, line); err != nil {
			return nil, err
		}
	}

	if len(req.Header.Values("Transfer-Encoding")) > 0 {
		return nil, ErrUnsupportedEncoding
	}

	length, err := contentLength(req.Header)
	if err != nil {
		return nil, err
	}
	if length > maxBody {
		return nil, ErrBodyTooLarge
	}
	if length > 0 {
		req.Body = make([]byte, length)
		if _, err := io.ReadFull(r, req.Body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: body shorter than Content-Length", ErrMalformedRequest)
			}
			return nil, err
		}
	}

	return req, nil
}

// readLine returns the next line without its terminator, accepting both CRLF and bare LF.
func readLine(r *bufio.Reader, budget *int) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		*budget -= len(chunk)
		if *budget < 0 {
			return "", ErrHeaderTooLarge
		}
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return "", fmt.Errorf("%w: unterminated line", ErrMalformedRequest)
		}
		return "", err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}

func parseRequestLine(line string) (*Request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}
	method, target, proto := parts[0], parts[1], parts[2]

	if !isToken(method) {
		return nil, fmt.Errorf("%w: bad method %q", ErrMalformedRequest, method)
	}
	if !strings.HasPrefix(target, "/") {
		return nil, fmt.Errorf("%w: unsupported request target %q", ErrMalformedRequest, target)
	}
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return nil, fmt.Errorf("%w: unsupported protocol %q", ErrMalformedRequest, proto)
	}

	path, query, _ := strings.Cut(target, "?")
	return &Request{
		Method:   method,
		Target:   target,
		Path:     path,
		RawQuery: query,
		Proto:    proto,
		Header:   make(http.Header),
	}, nil
}

func parseHeaderLine(h http.Header, line string) error {
	if line[0] == ' ' || line[0] == '\t' {
		return fmt.Errorf("%w: folded header line", ErrMalformedRequest)
	}
	name, value, ok := strings.Cut(line, ":")
	if !ok || !isToken(name) {
		return fmt.Errorf("%w: bad header line %q", ErrMalformedRequest, line)
	}
	h.Add(http.CanonicalHeaderKey(name), strings.Trim(value, " \t"))
	return nil
}

// contentLength returns the declared body length; repeated headers must agree.
func contentLength(h http.Header) (int64, error) {
	values := h.Values("Content-Length")
	if len(values) == 0 {
		return 0, nil
	}

	var length int64 = -1
	for _, v := range values {
		if v == "" || strings.TrimLeft(v, "0123456789") != "" {
			return 0, fmt.Errorf("%w: bad Content-Length %q", ErrMalformedRequest, v)
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad Content-Length %q", ErrMalformedRequest, v)
		}
		if length >= 0 && n != length {
			return 0, fmt.Errorf("%w: conflicting Content-Length values", ErrMalformedRequest)
		}
		length = n
	}
	return length, nil
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}
