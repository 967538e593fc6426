package hostbill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

const snippetLimit = 200

// Response is a decoded HostBill reply. Fields nested under "data" are lifted
// to the top level (top-level keys win) so callers never branch on that shape.
type Response struct {
	Method string
	fields map[string]json.RawMessage
}

func parseResponse(method string, status int, body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	var raw map[string]json.RawMessage
	if len(trimmed) == 0 || json.Unmarshal(trimmed, &raw) != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidResponse, fmt.Sprintf("hostbill %s returned a non-JSON response", method)).
			WithDetails(map[string]any{
				"method":  method,
				"status":  status,
				"snippet": snippet(trimmed),
			})
	}

	resp := &Response{Method: method, fields: liftData(raw)}
	if ok, present := resp.successFlag(); present && !ok {
		msg := resp.remoteMessage()
		return nil, pkgerrors.New(pkgerrors.CodeRemoteCall, msg).
			WithDetails(map[string]any{"method": method, "remote_message": msg})
	}
	if status >= 500 {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, fmt.Sprintf("hostbill %s failed with status %d", method, status)).
			WithDetails(map[string]any{"method": method, "status": status})
	}
	return resp, nil
}

func liftData(raw map[string]json.RawMessage) map[string]json.RawMessage {
	data, ok := raw["data"]
	if !ok {
		return raw
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(data, &nested); err != nil {
		return raw
	}
	merged := make(map[string]json.RawMessage, len(raw)+len(nested))
	for k, v := range nested {
		merged[k] = v
	}
	for k, v := range raw {
		merged[k] = v
	}
	return merged
}

func (r *Response) successFlag() (ok bool, present bool) {
	raw, exists := r.fields["success"]
	if !exists {
		return false, false
	}
	var flex FlexString
	if err := json.Unmarshal(raw, &flex); err != nil {
		return false, true
	}
	switch strings.ToLower(flex.String()) {
	case "false", "0", "":
		return false, true
	default:
		return true, true
	}
}

// remoteMessage extracts the error text. HostBill reports errors either as a
// string or as a list of strings.
func (r *Response) remoteMessage() string {
	for _, key := range []string{"error", "errors", "message"} {
		raw, ok := r.fields[key]
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil && single != "" {
			return single
		}
	}
	return fmt.Sprintf("hostbill %s reported failure", r.Method)
}

// Raw returns the field stored under key.
func (r *Response) Raw(key string) (json.RawMessage, bool) {
	if r == nil {
		return nil, false
	}
	raw, ok := r.fields[key]
	return raw, ok
}

// String returns the first non-empty scalar among keys.
func (r *Response) String(keys ...string) string {
	if r == nil {
		return ""
	}
	for _, key := range keys {
		raw, ok := r.fields[key]
		if !ok {
			continue
		}
		var flex FlexString
		if err := json.Unmarshal(raw, &flex); err == nil && flex != "" {
			return flex.String()
		}
	}
	return ""
}

// Decode unmarshals the field stored under key into dest.
func (r *Response) Decode(key string, dest any) (bool, error) {
	raw, ok := r.Raw(key)
	if !ok || isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, r.shapeError(key, err)
	}
	return true, nil
}

func (r *Response) shapeError(key string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInvalidResponse, err, fmt.Sprintf("hostbill %s returned an unexpected %q shape", r.Method, key)).
		WithDetails(map[string]any{"method": r.Method, "field": key})
}

// decodeCollection accepts either a JSON array or an object keyed by id.
// withKey receives the object key so items without an inline id can adopt it.
func decodeCollection[T any](r *Response, key string, withKey func(key string, item *T)) ([]T, error) {
	raw, ok := r.Raw(key)
	if !ok || isNull(raw) {
		return nil, nil
	}
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return nil, nil
	case trimmed[0] == '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, r.shapeError(key, err)
		}
		return items, nil
	case trimmed[0] == '{':
		var keyed map[string]T
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, r.shapeError(key, err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sortKeys(keys)
		items := make([]T, 0, len(keys))
		for _, k := range keys {
			item := keyed[k]
			if withKey != nil {
				withKey(k, &item)
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, r.shapeError(key, fmt.Errorf("unexpected token %q", trimmed[0]))
	}
}

// sortKeys orders numeric ids numerically and the rest lexically.
func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func snippet(body []byte) string {
	s := string(body)
	if len(s) > snippetLimit {
		return s[:snippetLimit] + "..."
	}
	return s
}

// FlexString decodes JSON strings, numbers, and booleans into a string.
// HostBill is inconsistent about quoting ids and amounts.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	switch trimmed[0] {
	case '{', '[':
		return fmt.Errorf("cannot decode %s into a scalar", trimmed)
	}
	*f = FlexString(trimmed)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
