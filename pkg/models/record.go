package models

import (
	"encoding/json"
	"fmt"
)

// Disposition values used by the records store.
const (
	DispositionOpen   = "open"
	DispositionClosed = "closed"
)

// Record is a single entry served by the records store. Fields the store
// returns beyond id, color and disposition are kept in Extra and written
// back unchanged when the record is encoded.
type Record struct {
	ID          int64                      `json:"id"`
	Color       string                     `json:"color"`
	Disposition string                     `json:"disposition"`
	Extra       map[string]json.RawMessage `json:"-"`
}

// knownRecordKeys are the keys decoded into typed Record fields.
var knownRecordKeys = map[string]struct{}{
	"id":          {},
	"color":       {},
	"disposition": {},
}

// UnmarshalJSON decodes the typed fields and collects unknown keys in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	var out Record
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("decode record id: %w", err)
		}
	}
	if raw, ok := fields["color"]; ok {
		if err := json.Unmarshal(raw, &out.Color); err != nil {
			return fmt.Errorf("decode record color: %w", err)
		}
	}
	if raw, ok := fields["disposition"]; ok {
		if err := json.Unmarshal(raw, &out.Disposition); err != nil {
			return fmt.Errorf("decode record disposition: %w", err)
		}
	}

	for k, v := range fields {
		if _, known := knownRecordKeys[k]; known {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	*r = out
	return nil
}

// MarshalJSON encodes the typed fields followed by any pass-through keys.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields())
}

// fields flattens the record into a single key/value map.
func (r Record) fields() map[string]any {
	m := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["id"] = r.ID
	m["color"] = r.Color
	m["disposition"] = r.Disposition
	return m
}

// AugmentedRecord is a Record annotated with whether its color is primary.
// IsPrimary is the string "true" or "false".
type AugmentedRecord struct {
	Record
	IsPrimary string `json:"isPrimary"`
}

// MarshalJSON keeps the record's pass-through keys alongside isPrimary.
func (a AugmentedRecord) MarshalJSON() ([]byte, error) {
	m := a.Record.fields()
	m["isPrimary"] = a.IsPrimary
	return json.Marshal(m)
}

// UnmarshalJSON decodes the embedded record and the isPrimary flag.
func (a *AugmentedRecord) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := rec.UnmarshalJSON(data); err != nil {
		return err
	}
	var flag struct {
		IsPrimary string `json:"isPrimary"`
	}
	if raw, ok := rec.Extra["isPrimary"]; ok {
		if err := json.Unmarshal(raw, &flag.IsPrimary); err != nil {
			return fmt.Errorf("decode isPrimary: %w", err)
		}
		delete(rec.Extra, "isPrimary")
		if len(rec.Extra) == 0 {
			rec.Extra = nil
		}
	}
	*a = AugmentedRecord{Record: rec, IsPrimary: flag.IsPrimary}
	return nil
}
