package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireField is the union of every variant's attributes; the `type` attribute
// decides which variant is built from it.
type wireField struct {
	Common
	Validation     *Validation       `json:"validation,omitempty"`
	Options        []string          `json:"options,omitempty"`
	DynamicOptions *DynamicOptions   `json:"dynamicOptions,omitempty"`
	Fields         []json.RawMessage `json:"fields,omitempty"`
}

// KindOf maps a wire type onto its variant kind.
func KindOf(fieldType string) Kind {
	switch strings.TrimSpace(fieldType) {
	case TypeText, TypeNumber, TypeDate:
		return KindInput
	case TypeSelect, TypeRadio, TypeCheckbox:
		return KindOption
	case TypeGroup:
		return KindGroup
	default:
		return KindUnknown
	}
}

// DecodeField decodes a single JSON field definition, recursing into groups.
// Unrecognised types decode into *UnknownField.
func DecodeField(data []byte) (Field, error) {
	var wire wireField
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("schema: decode field: %w", err)
	}

	switch KindOf(wire.Type) {
	case KindInput:
		return &InputField{Common: wire.Common, Validation: wire.Validation}, nil
	case KindOption:
		return &OptionField{
			Common:         wire.Common,
			Options:        wire.Options,
			DynamicOptions: wire.DynamicOptions,
		}, nil
	case KindGroup:
		children, err := decodeFields(wire.Fields)
		if err != nil {
			return nil, fmt.Errorf("schema: group %q: %w", wire.ID, err)
		}
		return &GroupField{Common: wire.Common, Fields: children}, nil
	default:
		return &UnknownField{Common: wire.Common}, nil
	}
}

func decodeFields(raw []json.RawMessage) ([]Field, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Field, 0, len(raw))
	for _, item := range raw {
		field, err := DecodeField(item)
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

// UnmarshalJSON decodes the nested field list of a group.
func (g *GroupField) UnmarshalJSON(data []byte) error {
	field, err := DecodeField(data)
	if err != nil {
		return err
	}
	group, ok := field.(*GroupField)
	if !ok {
		return fmt.Errorf("schema: expected group field, got type %q", field.Base().Type)
	}
	*g = *group
	return nil
}

// UnmarshalJSON decodes a form definition and its polymorphic fields.
func (f *InsuranceForm) UnmarshalJSON(data []byte) error {
	var wire struct {
		FormID string            `json:"formId"`
		Title  string            `json:"title"`
		Fields []json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("schema: decode form: %w", err)
	}
	fields, err := decodeFields(wire.Fields)
	if err != nil {
		return fmt.Errorf("schema: form %q: %w", wire.FormID, err)
	}
	f.FormID = wire.FormID
	f.Title = wire.Title
	f.Fields = fields
	return nil
}

// DecodeForms decodes a JSON form catalog (an array of forms).
func DecodeForms(data []byte) ([]InsuranceForm, error) {
	var forms []InsuranceForm
	if err := json.Unmarshal(data, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}
