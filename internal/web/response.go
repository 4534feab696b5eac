package web

import (
	"encoding/json"
	"log"
	"net/http"
)

const (
	ContentTypeHTML       = "text/html"
	ContentTypeJSON       = "application/json"
	ContentTypeURLEncoded = "application/x-www-form-urlencoded"
)

// Response is the outbound envelope returned by handlers. The router owns
// serializing it back over the connection.
type Response struct {
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    []byte
}

// HTML builds a text/html response.
func HTML(status int, body string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{ContentTypeHTML + "; charset=utf-8"}},
		Body:   []byte(body),
	}
}

// JSON builds an application/json response from v. Encoding failures are a
// programming error and degrade to a 500.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("[web] failed to encode JSON response: %v", err)
		return Text(http.StatusInternalServerError, "Internal Server Error")
	}
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{ContentTypeJSON}},
		Body:   body,
	}
}

// Text builds a text/plain response.
func Text(status int, body string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:   []byte(body),
	}
}

// Redirect builds an empty-bodied redirect to location.
func Redirect(status int, location string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Location": []string{location}},
	}
}

// WithCookie attaches a cookie to the response. Cookies without an explicit
// path are scoped to the whole site.
func (resp *Response) WithCookie(c *http.Cookie) *Response {
	if c.Path == "" {
		c.Path = "/"
	}
	resp.Cookies = append(resp.Cookies, c)
	return resp
}

// ClearCookie attaches an expired replacement for the named cookie.
func (resp *Response) ClearCookie(name string) *Response {
	return resp.WithCookie(&http.Cookie{Name: name, Value: "", MaxAge: -1, Path: "/"})
}

func (resp *Response) write(w http.ResponseWriter) {
	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	for _, c := range resp.Cookies {
		http.SetCookie(w, c)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			log.Printf("[web] failed to write response body: %v", err)
		}
	}
}
