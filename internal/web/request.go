package web

import (
	"io"
	"net/http"
	"net/url"
)

// Request is the inbound envelope handed to handlers: everything a handler
// may need, captured once at dispatch time so the underlying connection is
// never touched again.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
	Params   map[string]string

	cookies []*http.Cookie
}

func newRequest(r *http.Request) *Request {
	body, _ := io.ReadAll(r.Body)
	return &Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header,
		Body:     body,
		Params:   map[string]string{},
		cookies:  r.Cookies(),
	}
}

// Cookie returns the named cookie's value, or "" and false when absent.
func (r *Request) Cookie(name string) (string, bool) {
	for _, c := range r.cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// ContentType returns the request's Content-Type without parameters.
func (r *Request) ContentType() string {
	ct := r.Header.Get("Content-Type")
	for i := 0; i < len(ct); i++ {
		if ct[i] == ';' {
			return ct[:i]
		}
	}
	return ct
}

// WantsJSON reports whether the client talks JSON (API mode) rather than
// submitting a browser form.
func (r *Request) WantsJSON() bool {
	return r.ContentType() == ContentTypeJSON
}

// Query returns the parsed query string. Malformed queries degrade to an
// empty set rather than failing the request.
func (r *Request) Query() url.Values {
	values, err := url.ParseQuery(r.RawQuery)
	if err != nil {
		return url.Values{}
	}
	return values
}
