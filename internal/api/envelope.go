package api

import (
	"bytes"
	"encoding/json"
	"errors"
)

// listEnvelope extracts the list payload from one historically seen response shape.
type listEnvelope struct {
	name  string
	match func(raw json.RawMessage) ([]json.RawMessage, bool)
}

// listEnvelopes are tried in order; the first structural match wins.
var listEnvelopes = []listEnvelope{
	{name: "array", match: matchArray},
	{name: "data", match: matchKey("data")},
	{name: "leaderboard", match: matchKey("leaderboard")},
	{name: "entries", match: matchKey("entries")},
	{name: "result", match: matchNested("result", "data", "leaderboard", "entries")},
}

func matchArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

func matchKey(key string) func(json.RawMessage) ([]json.RawMessage, bool) {
	return func(raw json.RawMessage) ([]json.RawMessage, bool) {
		obj, ok := asObject(raw)
		if !ok {
			return nil, false
		}
		inner, ok := obj[key]
		if !ok {
			return nil, false
		}
		return matchArray(inner)
	}
}

func matchNested(outer string, keys ...string) func(json.RawMessage) ([]json.RawMessage, bool) {
	return func(raw json.RawMessage) ([]json.RawMessage, bool) {
		obj, ok := asObject(raw)
		if !ok {
			return nil, false
		}
		inner, ok := obj[outer]
		if !ok {
			return nil, false
		}
		for _, key := range keys {
			if items, ok := matchKey(key)(inner); ok {
				return items, true
			}
		}
		return nil, false
	}
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// UnwrapList normalizes any known list envelope to a bare ordered sequence.
// Unknown shapes yield an empty sequence; a payload that is not JSON at all is an error.
func UnwrapList(raw json.RawMessage) ([]json.RawMessage, error) {
	if !json.Valid(raw) {
		return nil, errors.New("payload is not valid JSON")
	}
	for _, env := range listEnvelopes {
		if items, ok := env.match(raw); ok {
			return items, nil
		}
	}
	return []json.RawMessage{}, nil
}

// parseList decodes every list entry into its wire shape and normalizes it.
// Any entry failing validation fails the whole payload.
func parseList[W any, T any](endpoint string, raw json.RawMessage, normalize func(W) (T, string, error)) ([]T, error) {
	items, err := UnwrapList(raw)
	if err != nil {
		return nil, &ValidationError{Endpoint: endpoint, Index: -1, Err: err}
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var w W
		if err := json.Unmarshal(item, &w); err != nil {
			return nil, &ValidationError{Endpoint: endpoint, Index: i, Err: err}
		}
		v, field, err := normalize(w)
		if err != nil {
			return nil, &ValidationError{Endpoint: endpoint, Index: i, Field: field, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
