package schema

// Kind identifies a field variant. The wire `type` attribute maps onto exactly
// one Kind; several wire types share the input and option kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindOption
	KindGroup
)

// String reports a readable kind name.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOption:
		return "option"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Wire field types.
const (
	TypeText     = "text"
	TypeNumber   = "number"
	TypeDate     = "date"
	TypeSelect   = "select"
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeGroup    = "group"
)

// Field is the closed set of form field variants: *InputField, *OptionField,
// *GroupField and *UnknownField. The unexported marker keeps other packages
// from adding variants, so every consumer can switch exhaustively.
type Field interface {
	Base() *Common
	Kind() Kind
	field()
}

// Common holds the attributes shared by every variant.
type Common struct {
	ID         string               `json:"id" yaml:"id"`
	Label      string               `json:"label" yaml:"label"`
	Type       string               `json:"type" yaml:"type"`
	Required   bool                 `json:"required" yaml:"required"`
	Visibility *VisibilityCondition `json:"visibility,omitempty" yaml:"visibility,omitempty"`
}

// Base returns the shared attributes.
func (c *Common) Base() *Common { return c }

// Validation carries the optional constraints of an input field.
type Validation struct {
	Required *bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern  string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// InputField is a text, number or date input.
type InputField struct {
	Common
	Validation *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
}

func (*InputField) Kind() Kind { return KindInput }
func (*InputField) field()     {}

// DynamicOptions describes an option list fetched from an endpoint using the
// live value of another field.
type DynamicOptions struct {
	DependsOn string `json:"dependsOn" yaml:"dependsOn"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Method    string `json:"method,omitempty" yaml:"method,omitempty"`
}

// OptionField is a select, radio or checkbox field. DynamicOptions, when set,
// supersedes Options.
type OptionField struct {
	Common
	Options        []string        `json:"options" yaml:"options"`
	DynamicOptions *DynamicOptions `json:"dynamicOptions,omitempty" yaml:"dynamicOptions,omitempty"`
}

func (*OptionField) Kind() Kind { return KindOption }
func (*OptionField) field()     {}

// Multiple reports whether the field collects a list of values.
func (f *OptionField) Multiple() bool { return f.Type == TypeCheckbox }

// GroupField nests other fields.
type GroupField struct {
	Common
	Fields []Field `json:"fields" yaml:"fields"`
}

func (*GroupField) Kind() Kind { return KindGroup }
func (*GroupField) field()     {}

// UnknownField keeps a field whose type is not recognised so renderers can
// show a placeholder instead of dropping it silently.
type UnknownField struct {
	Common
}

func (*UnknownField) Kind() Kind { return KindUnknown }
func (*UnknownField) field()     {}

// Condition names a visibility predicate.
type Condition string

const (
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "notEquals"
	ConditionContains    Condition = "contains"
	ConditionGreaterThan Condition = "greaterThan"
	ConditionLessThan    Condition = "lessThan"
)

// VisibilityCondition shows a field only while the watched field's value
// satisfies the condition.
type VisibilityCondition struct {
	DependsOn string    `json:"dependsOn" yaml:"dependsOn"`
	Condition Condition `json:"condition" yaml:"condition"`
	Value     any       `json:"value" yaml:"value"`
}

// InsuranceForm is a complete form definition as served by the backend.
type InsuranceForm struct {
	FormID string  `json:"formId" yaml:"formId"`
	Title  string  `json:"title" yaml:"title"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Values is the flat field-id to value mapping shared by drafts, validation
// and submission.
type Values map[string]any

// Clone returns a shallow copy; slices are copied one level deep.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	out := make(Values, len(v))
	for key, value := range v {
		switch typed := value.(type) {
		case []string:
			out[key] = append([]string(nil), typed...)
		case []any:
			out[key] = append([]any(nil), typed...)
		default:
			out[key] = value
		}
	}
	return out
}
