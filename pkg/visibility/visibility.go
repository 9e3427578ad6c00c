// Package visibility decides whether a conditionally displayed field is shown
// for the current value of the field it watches.
package visibility

import (
	"math"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Evaluator determines whether a field guarded by cond is visible given the
// current value of the watched field.
type Evaluator interface {
	Eval(cond *schema.VisibilityCondition, dependencyValue any) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(cond *schema.VisibilityCondition, dependencyValue any) bool

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(cond *schema.VisibilityCondition, dependencyValue any) bool {
	return fn(cond, dependencyValue)
}

// Default evaluates conditions with IsVisible.
var Default Evaluator = EvaluatorFunc(IsVisible)

// IsVisible evaluates a single condition. A nil condition is always visible
// and an unrecognised condition kind fails open.
func IsVisible(cond *schema.VisibilityCondition, dependencyValue any) bool {
	if cond == nil {
		return true
	}
	switch cond.Condition {
	case schema.ConditionEquals:
		return StrictEqual(dependencyValue, cond.Value)
	case schema.ConditionNotEquals:
		return !StrictEqual(dependencyValue, cond.Value)
	case schema.ConditionContains:
		return contains(String(dependencyValue), String(cond.Value))
	case schema.ConditionGreaterThan:
		return Number(dependencyValue) > Number(cond.Value)
	case schema.ConditionLessThan:
		return Number(dependencyValue) < Number(cond.Value)
	default:
		return true
	}
}

// Field reports whether field is visible for values using eval (Default when
// nil). Fields without a condition are always visible.
func Field(field schema.Field, values map[string]any, eval Evaluator) bool {
	if field == nil {
		return false
	}
	cond := field.Base().Visibility
	if cond == nil {
		return true
	}
	if eval == nil {
		eval = Default
	}
	return eval.Eval(cond, values[cond.DependsOn])
}

// StrictEqual compares values by type and value. Numbers compare by numeric
// value regardless of Go representation; a numeric string never equals a
// number.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, ok := numeric(a); ok {
		nb, ok := numeric(b)
		return ok && na == nb && !math.IsNaN(na)
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}
