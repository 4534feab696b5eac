package web

import (
	"fmt"
	"net"
	"strconv"

	"gorm.io/gorm"
)

// Context is the per-request handler context. Each of its accessors is one
// parameter-resolution strategy: a pure step from request state to a value or
// a typed failure.
type Context struct {
	request *Request
	db      *gorm.DB
	flash   *FlashStore
	remote  string

	form FormData // retained after the first body parse for error echoing
}

// CoercionError reports a path or query parameter that failed type coercion.
type CoercionError struct {
	Name  string
	Value string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q", e.Value, e.Name)
}

// Req resolves the raw request envelope.
func (c *Context) Req() *Request { return c.request }

// DB resolves the request-scoped persistence session.
func (c *Context) DB() *gorm.DB { return c.db }

// RemoteIP returns the client address without the port, for rate-limit keys.
func (c *Context) RemoteIP() string {
	host, _, err := net.SplitHostPort(c.remote)
	if err != nil {
		return c.remote
	}
	return host
}

// PathString resolves a raw path parameter.
func (c *Context) PathString(name string) (string, bool) {
	v, ok := c.request.Params[name]
	return v, ok
}

// PathInt resolves a path parameter as an integer.
func (c *Context) PathInt(name string) (int, error) {
	raw, ok := c.request.Params[name]
	if !ok {
		return 0, &CoercionError{Name: name}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &CoercionError{Name: name, Value: raw}
	}
	return n, nil
}

// QueryString resolves a query parameter.
func (c *Context) QueryString(name string) (string, bool) {
	values, ok := c.request.Query()[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// QueryInt resolves a query parameter as an integer, with the same coercion
// rule as path parameters.
func (c *Context) QueryInt(name string) (int, error) {
	raw, ok := c.QueryString(name)
	if !ok {
		return 0, &CoercionError{Name: name}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &CoercionError{Name: name, Value: raw}
	}
	return n, nil
}

// FormData resolves the request body as structured form data, dispatching on
// the declared Content-Type. The parsed data is retained on the context so a
// later validation-error path can echo submitted values back.
func (c *Context) FormData() FormData {
	if c.form == nil {
		c.form = parseBody(c.request.ContentType(), c.request.Body)
	}
	return c.form
}
