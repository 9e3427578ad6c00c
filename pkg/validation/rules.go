// Package validation derives per-field rule sets from form definitions, checks
// values against them and maps failures onto user-facing messages.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

// ErrInvalidPattern marks a field whose pattern does not compile. It is a
// configuration error: the remaining rules still apply.
var ErrInvalidPattern = errors.New("validation: invalid pattern")

// Failure names the rule a value failed.
type Failure string

const (
	FailureNone     Failure = ""
	FailureRequired Failure = "required"
	FailureMin      Failure = "min"
	FailureMax      Failure = "max"
	FailurePattern  Failure = "pattern"
	FailureInvalid  Failure = "invalid"
)

// Rules is the compiled rule set of a single field.
type Rules struct {
	Kind     schema.Kind
	Multiple bool
	Required bool
	Min      *float64
	Max      *float64
	Pattern  *regexp.Regexp
}

// RulesFor derives the rule set for field. Option fields only carry the
// required rule; membership in the resolved option list is not checked.
func RulesFor(field schema.Field) (Rules, error) {
	if field == nil {
		return Rules{}, errors.New("validation: field is nil")
	}

	base := field.Base()
	rules := Rules{Kind: field.Kind(), Required: base.Required}

	switch typed := field.(type) {
	case *schema.InputField:
		v := typed.Validation
		if v == nil {
			return rules, nil
		}
		if v.Required != nil && *v.Required {
			rules.Required = true
		}
		rules.Min = v.Min
		rules.Max = v.Max
		if v.Pattern != "" {
			re, err := regexp.Compile(v.Pattern)
			if err != nil {
				return rules, fmt.Errorf("%w: field %q: %v", ErrInvalidPattern, base.ID, err)
			}
			rules.Pattern = re
		}
		return rules, nil
	case *schema.OptionField:
		rules.Multiple = typed.Multiple()
		return rules, nil
	case *schema.GroupField:
		rules.Required = false
		return rules, nil
	case *schema.UnknownField:
		return rules, nil
	default:
		return rules, fmt.Errorf("validation: unhandled field variant %T", field)
	}
}

// Check returns the first failed rule in the order required, min, max,
// pattern. Empty values only ever fail the required rule.
func (r Rules) Check(value any) Failure {
	if IsEmpty(value) {
		if r.Required {
			return FailureRequired
		}
		return FailureNone
	}

	if r.Kind != schema.KindInput {
		return FailureNone
	}

	if r.Min != nil || r.Max != nil {
		n := visibility.Number(value)
		if math.IsNaN(n) {
			return FailureInvalid
		}
		if r.Min != nil && n < *r.Min {
			return FailureMin
		}
		if r.Max != nil && n > *r.Max {
			return FailureMax
		}
	}

	if r.Pattern != nil && !r.Pattern.MatchString(visibility.String(value)) {
		return FailurePattern
	}
	return FailureNone
}

// IsEmpty reports whether a value counts as missing for the required rule.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case time.Time:
		return v.IsZero()
	case *time.Time:
		return v == nil || v.IsZero()
	default:
		return false
	}
}
