package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

func marshalJSON(v any, field string) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
	}
	return data, nil
}

// unmarshalMap decodes a JSON object column. An empty column yields an
// empty map, never nil.
func unmarshalMap(data datatypes.JSON, field string) (map[string]any, error) {
	result := make(map[string]any)
	if len(data) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", field, err)
	}
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
