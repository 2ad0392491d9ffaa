package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringMap stores a string-keyed lookup (participant names by email) as a
// JSONB column.
type StringMap map[string]string

func (m *StringMap) Scan(src any) error {
	return scanJSON(src, m)
}

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return marshalJSON(m)
}

// IntMap stores string-keyed counters (per-participant unread counts) as a
// JSONB column.
type IntMap map[string]int

func (m *IntMap) Scan(src any) error {
	return scanJSON(src, m)
}

func (m IntMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return marshalJSON(m)
}

func scanJSON(src, dest any) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), dest)
	case []byte:
		return json.Unmarshal(v, dest)
	default:
		return fmt.Errorf("dbtypes: unsupported Scan type %T", src)
	}
}

func marshalJSON(value any) (driver.Value, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
