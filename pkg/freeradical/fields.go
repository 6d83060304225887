package freeradical

import (
	"encoding/json"
	"fmt"
)

type FieldType string

const (
	FieldText          FieldType = "text"
	FieldTextarea      FieldType = "textarea"
	FieldWysiwyg       FieldType = "wysiwyg"
	FieldJSON          FieldType = "json"
	FieldNumber        FieldType = "number"
	FieldBoolean       FieldType = "boolean"
	FieldDate          FieldType = "date"
	FieldDatetime      FieldType = "datetime"
	FieldFileReference FieldType = "file_reference"
	FieldPageReference FieldType = "page_reference"
	FieldSelect        FieldType = "select"
	FieldMultiSelect   FieldType = "multi_select"
)

// FieldConfig is a tagged union keyed by Type. At most one variant pointer is
// set; Raw holds configs for types without a variant, or configs that did not
// decode into their variant.
type FieldConfig struct {
	Type      FieldType
	Text      *TextConfig
	Number    *NumberConfig
	Choice    *ChoiceConfig
	Reference *ReferenceConfig
	Raw       json.RawMessage
}

// TextConfig applies to text, textarea and wysiwyg fields.
type TextConfig struct {
	Placeholder string   `json:"placeholder,omitempty"`
	Rows        int      `json:"rows,omitempty"`
	Toolbar     []string `json:"toolbar,omitempty"`
}

type NumberConfig struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step float64  `json:"step,omitempty"`
	Unit string   `json:"unit,omitempty"`
}

// ChoiceConfig applies to select and multi_select fields.
type ChoiceConfig struct {
	Options []ChoiceOption `json:"options"`
}

// ChoiceOption decodes from either {"value","label"} or a bare string.
type ChoiceOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

func (o *ChoiceOption) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Value, o.Label = s, s
		return nil
	}
	type plain ChoiceOption
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = ChoiceOption(p)
	return nil
}

// ReferenceConfig applies to file_reference and page_reference fields.
type ReferenceConfig struct {
	Accept   []string `json:"accept,omitempty"`
	MaxBytes int64    `json:"max_bytes,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
}

func TextField(t FieldType, cfg TextConfig) *FieldConfig {
	return &FieldConfig{Type: t, Text: &cfg}
}

func NumberField(cfg NumberConfig) *FieldConfig {
	return &FieldConfig{Type: FieldNumber, Number: &cfg}
}

func ChoiceField(t FieldType, options ...ChoiceOption) *FieldConfig {
	return &FieldConfig{Type: t, Choice: &ChoiceConfig{Options: options}}
}

func ReferenceField(t FieldType, cfg ReferenceConfig) *FieldConfig {
	return &FieldConfig{Type: t, Reference: &cfg}
}

func (f *FieldConfig) MarshalJSON() ([]byte, error) {
	switch {
	case f == nil:
		return []byte("null"), nil
	case f.Text != nil:
		return json.Marshal(f.Text)
	case f.Number != nil:
		return json.Marshal(f.Number)
	case f.Choice != nil:
		return json.Marshal(f.Choice)
	case f.Reference != nil:
		return json.Marshal(f.Reference)
	case len(f.Raw) > 0:
		return f.Raw, nil
	}
	return []byte("null"), nil
}

// decodeFieldConfig interprets raw under type t. Servers that store the blob
// as a string get the string's JSON content decoded instead.
func decodeFieldConfig(t FieldType, raw json.RawMessage) *FieldConfig {
	raw = unquoteBlob(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	cfg := &FieldConfig{Type: t}
	var target any
	switch t {
	case FieldText, FieldTextarea, FieldWysiwyg:
		cfg.Text = &TextConfig{}
		target = cfg.Text
	case FieldNumber:
		cfg.Number = &NumberConfig{}
		target = cfg.Number
	case FieldSelect, FieldMultiSelect:
		cfg.Choice = &ChoiceConfig{}
		target = cfg.Choice
	case FieldFileReference, FieldPageReference:
		cfg.Reference = &ReferenceConfig{}
		target = cfg.Reference
	}
	if target == nil || json.Unmarshal(raw, target) != nil {
		return &FieldConfig{Type: t, Raw: raw}
	}
	return cfg
}

// unquoteBlob turns a JSON string holding JSON into that JSON.
func unquoteBlob(raw json.RawMessage) json.RawMessage {
	raw = trimJSON(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return raw
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return raw
	}
	if !json.Valid([]byte(inner)) {
		return raw
	}
	return trimJSON([]byte(inner))
}

// ValidationRules are the per-field rules a server enforces. Keys without a
// field here are kept in Extra and sent back unchanged.
type ValidationRules struct {
	Required      *bool
	MinLength     *int
	MaxLength     *int
	Pattern       *string
	MinValue      *float64
	MaxValue      *float64
	AllowedValues []string
	Extra         map[string]json.RawMessage
}

type validationWire struct {
	Required      *bool    `json:"required,omitempty"`
	MinLength     *int     `json:"min_length,omitempty"`
	MaxLength     *int     `json:"max_length,omitempty"`
	Pattern       *string  `json:"pattern,omitempty"`
	MinValue      *float64 `json:"min_value,omitempty"`
	MaxValue      *float64 `json:"max_value,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

var validationKeys = []string{"required", "min_length", "max_length", "pattern", "min_value", "max_value", "allowed_values"}

func (v *ValidationRules) UnmarshalJSON(data []byte) error {
	data = unquoteBlob(data)
	if len(data) == 0 || string(data) == "null" {
		*v = ValidationRules{}
		return nil
	}
	var w validationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("validation rules: %w", err)
	}
	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("validation rules: %w", err)
	}
	for _, key := range validationKeys {
		delete(all, key)
	}
	*v = ValidationRules{
		Required:      w.Required,
		MinLength:     w.MinLength,
		MaxLength:     w.MaxLength,
		Pattern:       w.Pattern,
		MinValue:      w.MinValue,
		MaxValue:      w.MaxValue,
		AllowedValues: w.AllowedValues,
	}
	if len(all) > 0 {
		v.Extra = all
	}
	return nil
}

func (v ValidationRules) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(validationWire{
		Required:      v.Required,
		MinLength:     v.MinLength,
		MaxLength:     v.MaxLength,
		Pattern:       v.Pattern,
		MinValue:      v.MinValue,
		MaxValue:      v.MaxValue,
		AllowedValues: v.AllowedValues,
	})
	if err != nil || len(v.Extra) == 0 {
		return known, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range v.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
