package dbtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OptionTable stores option group surcharges (group -> label -> price). Prices
// stay as raw JSON so numeric precision is preserved exactly as written.
type OptionTable map[string]map[string]json.RawMessage

func (t *OptionTable) Scan(src any) error {
	raw, err := scanBytes("OptionTable", src)
	if err != nil {
		return err
	}
	out := OptionTable{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("OptionTable: decode: %w", err)
		}
	}
	*t = out
	return nil
}

func (t OptionTable) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("OptionTable: encode: %w", err)
	}
	return string(b), nil
}

// StringMap stores a flat string map, used for selected options on order items.
type StringMap map[string]string

func (m *StringMap) Scan(src any) error {
	raw, err := scanBytes("StringMap", src)
	if err != nil {
		return err
	}
	out := StringMap{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("StringMap: decode: %w", err)
		}
	}
	*m = out
	return nil
}

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("StringMap: encode: %w", err)
	}
	return string(b), nil
}

func scanBytes(name string, src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return bytes.TrimSpace([]byte(v)), nil
	case []byte:
		return bytes.TrimSpace(v), nil
	default:
		return nil, fmt.Errorf("%s: unsupported Scan type %T", name, src)
	}
}
