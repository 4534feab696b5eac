package web

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// FormData is a parsed request body: field name to one or more values.
// URL-encoded fields named with a "[]" suffix keep all their values; plain
// fields keep the first.
type FormData map[string][]string

// Get returns the field's first value, or "".
func (d FormData) Get(name string) string {
	if values, ok := d[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// Has reports whether the field was submitted at all.
func (d FormData) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// Bool interprets the field as a flag. Browsers submit checkboxes as "on";
// API clients send true/1.
func (d FormData) Bool(name string) bool {
	switch strings.ToLower(d.Get(name)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// parseBody dispatches on content type. Unknown content types yield an empty
// data set rather than an error.
func parseBody(contentType string, body []byte) FormData {
	switch contentType {
	case ContentTypeURLEncoded:
		return parseURLEncoded(string(body))
	case ContentTypeJSON:
		return parseJSONBody(body)
	}
	return FormData{}
}

func parseURLEncoded(content string) FormData {
	data := FormData{}
	values, err := url.ParseQuery(content)
	if err != nil {
		return data
	}
	for name, v := range values {
		if strings.HasSuffix(name, "[]") {
			data[name[:len(name)-2]] = v
		} else {
			data[name] = v[:1]
		}
	}
	return data
}

func parseJSONBody(body []byte) FormData {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return FormData{}
	}
	data := FormData{}
	for name, value := range raw {
		switch v := value.(type) {
		case string:
			data[name] = []string{v}
		case bool:
			data[name] = []string{strconv.FormatBool(v)}
		case float64:
			data[name] = []string{strconv.FormatFloat(v, 'f', -1, 64)}
		case nil:
			data[name] = []string{""}
		case []any:
			var items []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					items = append(items, s)
				}
			}
			data[name] = items
		}
	}
	return data
}
