package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is the failure returned for a non-2xx response.
// It keeps the status code and raw body so callers can inspect them.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if snippet := readBodySnippet(e.Body); snippet != "" {
		msg += ": " + snippet
	}
	return msg
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// IsUnauthorized reports whether err carries a 401 response.
func IsUnauthorized(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusUnauthorized
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
