// Package mask redacts sensitive fields from request and response data
// before it reaches a log line or the remote telemetry sink.
package mask

import (
	"encoding/json"
	"strings"
)

// Marker replaces every masked value.
const Marker = "***MASKED***"

// DefaultFields are masked when no explicit list is configured.
var DefaultFields = []string{
	"password",
	"token",
	"accessToken",
	"refreshToken",
	"authorization",
	"Authorization",
	"secret",
	"apiKey",
	"cookie",
	"Cookie",
}

// Mask returns a copy of data with every top-level key listed in fields
// replaced by Marker. Supported inputs are map[string]any, map[string]string
// and map[string][]string; anything else is returned unchanged. The input is
// never modified.
func Mask(data any, fields []string) any {
	switch m := data.(type) {
	case map[string]any:
		if m == nil {
			return m
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			if contains(fields, k) {
				out[k] = Marker
				continue
			}
			out[k] = v
		}
		return out
	case map[string]string:
		if m == nil {
			return m
		}
		out := make(map[string]string, len(m))
		for k, v := range m {
			if contains(fields, k) {
				out[k] = Marker
				continue
			}
			out[k] = v
		}
		return out
	case map[string][]string:
		if m == nil {
			return m
		}
		out := make(map[string][]string, len(m))
		for k, v := range m {
			if contains(fields, k) {
				out[k] = []string{Marker}
				continue
			}
			out[k] = v
		}
		return out
	default:
		return data
	}
}

func contains(fields []string, key string) bool {
	for _, f := range fields {
		if f == key {
			return true
		}
	}
	return false
}

// Masker applies one configured field list to the shapes the client logs.
type Masker struct {
	fields []string
}

// New creates a Masker. An empty list falls back to DefaultFields.
func New(fields []string) *Masker {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	cp := make([]string, len(fields))
	copy(cp, fields)
	return &Masker{fields: cp}
}

// Fields returns the configured field names.
func (m *Masker) Fields() []string {
	out := make([]string, len(m.fields))
	copy(out, m.fields)
	return out
}

// Mask masks data with the configured fields.
func (m *Masker) Mask(data any) any {
	return Mask(data, m.fields)
}

// Headers masks HTTP headers. Header names compare case-insensitively.
func (m *Masker) Headers(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if m.matchFold(k) {
			out[k] = Marker
			continue
		}
		out[k] = v
	}
	return out
}

// JSON decodes body and masks it when it is a JSON object. Other JSON values
// are returned decoded; non-JSON bodies come back as a string.
func (m *Masker) JSON(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return m.Mask(v)
}

// Value masks a request body given as a Go value. Structs are round-tripped
// through JSON so their exported fields can be masked by name.
func (m *Masker) Value(v any) any {
	switch b := v.(type) {
	case nil:
		return nil
	case []byte:
		return m.JSON(b)
	case string:
		return m.JSON([]byte(b))
	case map[string]any, map[string]string, map[string][]string:
		return m.Mask(b)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return m.JSON(data)
}

func (m *Masker) matchFold(key string) bool {
	for _, f := range m.fields {
		if strings.EqualFold(f, key) {
			return true
		}
	}
	return false
}
