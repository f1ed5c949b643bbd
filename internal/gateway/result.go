package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result is the canonical shape of every legacy API response.
type Result struct {
	OK      bool
	Message string
	Data    json.RawMessage
	fields  map[string]json.RawMessage
}

// RemoteRejection is an explicit failure reported by the legacy API.
type RemoteRejection struct {
	Operation string
	Message   string
}

func (e *RemoteRejection) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking api rejected %s", e.Operation)
	}
	return fmt.Sprintf("booking api rejected %s: %s", e.Operation, e.Message)
}

// ParseResult normalizes the legacy response shapes. Success may be
// signalled by a success/Success boolean, status "success" or a verified
// flag on the payload; the message may be keyed message or Message; the
// payload may live under Data, data or user.
func ParseResult(body []byte) (*Result, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrRemoteUnavailable, err)
	}

	r := &Result{fields: fields}
	r.Message, _ = lookupString(fields, "message")

	for _, key := range []string{"Data", "data", "user"} {
		if raw, ok := fields[key]; ok && !isNull(raw) {
			r.Data = raw
			break
		}
	}

	switch {
	case lookupBool(fields, "success"):
		r.OK = true
	case strings.EqualFold(mustString(fields, "status"), "success"):
		r.OK = true
	case lookupBool(fields, "verified"):
		r.OK = true
	default:
		if obj := r.dataObject(); obj != nil && lookupBool(obj, "verified") {
			r.OK = true
		}
	}
	return r, nil
}

// Field returns a top-level field, falling back to the payload object.
func (r *Result) Field(key string) (json.RawMessage, bool) {
	if raw, ok := lookup(r.fields, key); ok {
		return raw, true
	}
	if obj := r.dataObject(); obj != nil {
		return lookup(obj, key)
	}
	return nil, false
}

func (r *Result) dataObject() map[string]json.RawMessage {
	if len(r.Data) == 0 {
		return nil
	}
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(r.Data, &obj); err != nil {
		return nil
	}
	return obj
}

// lookup matches keys case-insensitively, preferring an exact match.
func lookup(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	if raw, ok := fields[key]; ok {
		return raw, true
	}
	for k, raw := range fields {
		if strings.EqualFold(k, key) {
			return raw, true
		}
	}
	return nil, false
}

func lookupBool(fields map[string]json.RawMessage, key string) bool {
	raw, ok := lookup(fields, key)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, _ := strconv.ParseBool(strings.TrimSpace(s))
		return parsed
	}
	return false
}

func lookupString(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := lookup(fields, key)
	if !ok || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func mustString(fields map[string]json.RawMessage, key string) string {
	s, _ := lookupString(fields, key)
	return s
}

// ParseAmount accepts a JSON number or a numeric string such as "1,250.00".
func ParseAmount(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
