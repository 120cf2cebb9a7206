package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is a foreign key field that tolerates both wire shapes the
// legacy backend produced: a bare id string or a populated object
// carrying an "id" key. Responses from this API always emit the bare
// id; Ref exists so older clients and import payloads keep working.
type Ref struct {
	ID string
}

// ResolveID returns the referenced id, empty when unset.
func (r Ref) ResolveID() string {
	return r.ID
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// MarshalJSON always emits the bare id.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts "id", {"id": "..."} or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		r.ID = ""
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.ID)
	case '{':
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.ID == "" {
			return fmt.Errorf("ref object missing id")
		}
		r.ID = obj.ID
		return nil
	default:
		return fmt.Errorf("ref: unsupported JSON shape")
	}
}
