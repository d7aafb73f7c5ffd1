package shared

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap is a free-form JSON object stored in a jsonb (postgres) or text (sqlite) column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONMap: unsupported type")
	}

	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}

	result := JSONMap{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// GetString returns the string stored under key, or "" when absent.
func (m JSONMap) GetString(key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Clone returns a shallow copy of m
func (m JSONMap) Clone() JSONMap {
	out := make(JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
