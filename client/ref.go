package client

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Ref references another document, either by its bare id or as an embedded object.
type Ref struct {
	ID  string
	Doc json.RawMessage // embedded object, if any
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*r = Ref{}
		return nil
	case len(b) > 0 && b[0] == '"':
		r.Doc = nil
		return json.Unmarshal(b, &r.ID)
	}

	var obj struct {
		ID    string `json:"id"`
		MgoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.Wrap(err, "decoding reference")
	}
	r.ID = obj.ID
	if r.ID == "" {
		r.ID = obj.MgoID
	}
	if r.ID == "" {
		return errors.New("reference without id")
	}
	r.Doc = append(json.RawMessage(nil), b...)
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// Decode unmarshals the embedded object into dst; it reports false for bare ids.
func (r Ref) Decode(dst interface{}) (bool, error) {
	if len(r.Doc) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(r.Doc, dst)
}
