package lua

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"patternweb/playground/pkg/engine"
)

// Property kinds accepted by property().
const (
	kindUnsigned = "unsigned"
	kindSigned   = "signed"
	kindFloat    = "float"
	kindString   = "string"
	kindEnum     = "enum"
)

type property struct {
	category string
	name     string
	kind     string
	size     uint64
	fields   []engine.UIEnumField
}

// propertySet mirrors the compiled engine's bookkeeping: every registration
// consumes an index, and a later registration of the same category and
// name replaces the earlier one.
type propertySet struct {
	items []property
	index map[string]map[string]int
}

func newPropertySet() *propertySet {
	return &propertySet{index: make(map[string]map[string]int)}
}

func (ps *propertySet) add(p property) error {
	switch p.kind {
	case kindUnsigned, kindSigned:
		if p.size < 1 || p.size > 8 {
			return fmt.Errorf("property %q: size must be between 1 and 8 bytes, got %d", p.name, p.size)
		}
	case kindFloat, kindString, kindEnum:
	default:
		return fmt.Errorf("property %q: unknown kind %q", p.name, p.kind)
	}

	if ps.index[p.category] == nil {
		ps.index[p.category] = make(map[string]int)
	}
	ps.index[p.category][p.name] = len(ps.items)
	ps.items = append(ps.items, p)
	return nil
}

// JSON renders the UI descriptor: categories and items sorted by name.
func (ps *propertySet) JSON() (string, error) {
	categories := make([]string, 0, len(ps.index))
	for c := range ps.index {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	cfg := make(engine.UIConfig, 0, len(categories))
	for _, c := range categories {
		names := make([]string, 0, len(ps.index[c]))
		for n := range ps.index[c] {
			names = append(names, n)
		}
		sort.Strings(names)

		cat := engine.UICategory{CategoryName: c, Items: make([]engine.UIItem, 0, len(names))}
		for _, n := range names {
			id := ps.index[c][n]
			cat.Items = append(cat.Items, ps.items[id].uiItem(uint64(id)))
		}
		cfg = append(cfg, cat)
	}

	out, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (p property) uiItem(id uint64) engine.UIItem {
	item := engine.UIItem{Name: p.name, ID: id, Type: p.kind}
	bits := p.size * 8

	switch p.kind {
	case kindUnsigned:
		lo, hi := int64(0), uint64(math.MaxUint64)
		if bits < 64 {
			hi = 1<<bits - 1
		}
		item.Properties.Min, item.Properties.Max = &lo, &hi
	case kindSigned:
		lo, hi := int64(-1)<<(bits-1), uint64(1)<<(bits-1)-1
		item.Properties.Min, item.Properties.Max = &lo, &hi
	case kindString:
		length := p.size
		item.Properties.Length = &length
	case kindEnum:
		item.Properties.Fields = p.fields
	}
	return item
}
