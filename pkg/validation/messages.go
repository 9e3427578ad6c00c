package validation

import (
	"strconv"

	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Message maps a failure to its user-facing text. Option fields only
// distinguish a missing required value from an invalid selection.
func Message(failure Failure, field schema.Field, t i18n.Translator, locale string) string {
	if failure == FailureNone {
		return ""
	}

	if _, isOption := field.(*schema.OptionField); isOption {
		if failure == FailureRequired && field.Base().Required {
			return i18n.T(t, locale, i18n.KeyRequired, nil)
		}
		return i18n.T(t, locale, i18n.KeyInvalidSelection, nil)
	}

	var validation *schema.Validation
	if input, ok := field.(*schema.InputField); ok {
		validation = input.Validation
	}

	switch failure {
	case FailureRequired:
		return i18n.T(t, locale, i18n.KeyRequired, nil)
	case FailureMin:
		return i18n.T(t, locale, i18n.KeyMin, map[string]any{"min": bound(validation, true)})
	case FailureMax:
		return i18n.T(t, locale, i18n.KeyMax, map[string]any{"max": bound(validation, false)})
	case FailurePattern:
		return i18n.T(t, locale, i18n.KeyPattern, nil)
	default:
		return i18n.T(t, locale, i18n.KeyInvalid, nil)
	}
}

func bound(v *schema.Validation, min bool) string {
	if v == nil {
		return ""
	}
	target := v.Max
	if min {
		target = v.Min
	}
	if target == nil {
		return ""
	}
	return strconv.FormatFloat(*target, 'f', -1, 64)
}
