package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// EncodeQuery renders params as a URL query string. Strings pass through,
// numbers keep their JSON text, arrays of scalars become repeated keys and
// nulls are dropped. Nested objects are rejected. Keys are sorted.
func EncodeQuery(params map[string]any) (string, error) {
	values := url.Values{}
	for key, raw := range params {
		switch v := raw.(type) {
		case nil:
			continue
		case []any:
			for _, item := range v {
				if item == nil {
					continue
				}
				s, err := scalar(key, item)
				if err != nil {
					return "", err
				}
				values.Add(key, s)
			}
		default:
			s, err := scalar(key, v)
			if err != nil {
				return "", err
			}
			values.Set(key, s)
		}
	}
	return values.Encode(), nil
}

func scalar(key string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("%w: parameter %q must be a scalar or a list of scalars", ErrInvalidQuery, key)
	}
}

// DecodeParams parses a JSON object into query parameters, keeping numbers
// as written.
func DecodeParams(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidQuery)
	}
	var params map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil || params == nil {
		return nil, fmt.Errorf("%w: payload must be a JSON object", ErrInvalidQuery)
	}
	return params, nil
}
