package client

import (
	"bytes"
	"encoding/json"

	"github.com/trezcool/masomo/core"
)

// NormalizeArrayResponse extracts the items of a list response.
// It accepts a bare array, `{"data": [...]}` and `{"data": {"<resource>": [...]}}`;
// any other shape yields an empty slice.
func NormalizeArrayResponse(raw []byte, resource string, logger core.Logger) []json.RawMessage {
	items, ok := asArray(raw)
	if ok {
		return items
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		if items, ok = asArray(env.Data); ok {
			return items
		}
		var data map[string]json.RawMessage
		if err = json.Unmarshal(env.Data, &data); err == nil {
			if items, ok = asArray(data[resource]); ok {
				return items
			}
		}
	}

	logger.Warn("unexpected response shape for " + resource)
	return []json.RawMessage{}
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}
