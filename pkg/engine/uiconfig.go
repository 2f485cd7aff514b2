package engine

import (
	"encoding/json"
	"fmt"
)

// UIConfig is the parsed UI descriptor produced by an execution: the
// patterns marked as properties, grouped by category.
type UIConfig []UICategory

// UICategory groups property items.
type UICategory struct {
	CategoryName string   `json:"categoryName"`
	Items        []UIItem `json:"items"`
}

// UIItem describes one property.
type UIItem struct {
	Name       string       `json:"name"`
	ID         uint64       `json:"id"`
	Type       string       `json:"type,omitempty"`
	Properties UIProperties `json:"properties"`
}

// UIProperties holds the type specific bounds of an item.
type UIProperties struct {
	Min    *int64        `json:"min,omitempty"`
	Max    *uint64       `json:"max,omitempty"`
	Length *uint64       `json:"length,omitempty"`
	Fields []UIEnumField `json:"fields,omitempty"`
}

// UIEnumField is one enum constant.
type UIEnumField struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

// ParseUIConfig parses a UI descriptor. An empty descriptor, produced when
// execution aborted, parses to an empty UIConfig.
func ParseUIConfig(raw string) (UIConfig, error) {
	if raw == "" {
		return UIConfig{}, nil
	}
	var cfg UIConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse UI config: %w", err)
	}
	return cfg, nil
}

// ItemCount returns the number of items across all categories.
func (c UIConfig) ItemCount() int {
	n := 0
	for _, cat := range c {
		n += len(cat.Items)
	}
	return n
}
