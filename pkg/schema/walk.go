package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownFieldType is reported for fields whose wire type is not one of
// the known variants.
var ErrUnknownFieldType = errors.New("schema: unknown field type")

// WalkFunc visits a field; depth is 0 for top-level fields. Returning false
// skips the children of a group.
type WalkFunc func(field Field, depth int) bool

// Walk visits every field depth-first in declaration order.
func Walk(fields []Field, fn WalkFunc) {
	walk(fields, 0, fn)
}

func walk(fields []Field, depth int, fn WalkFunc) {
	for _, field := range fields {
		if field == nil {
			continue
		}
		descend := fn(field, depth)
		switch typed := field.(type) {
		case *GroupField:
			if descend {
				walk(typed.Fields, depth+1, fn)
			}
		case *InputField, *OptionField, *UnknownField:
		default:
			panic(fmt.Sprintf("schema: unhandled field variant %T", field))
		}
	}
}

// AllFieldIDs returns every field id in the tree, groups included, each
// exactly once in depth-first order.
func AllFieldIDs(fields []Field) []string {
	var ids []string
	seen := make(map[string]struct{})
	Walk(fields, func(field Field, _ int) bool {
		id := field.Base().ID
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// FindField returns the field with the given id anywhere in the tree.
func FindField(fields []Field, id string) (Field, bool) {
	var found Field
	Walk(fields, func(field Field, _ int) bool {
		if found != nil {
			return false
		}
		if field.Base().ID == id {
			found = field
			return false
		}
		return true
	})
	return found, found != nil
}

// Check reports structural problems in a form: empty or duplicate ids,
// unknown field types, dangling dependency references and malformed
// patterns. A non-nil result never prevents rendering; callers log it.
func Check(form InsuranceForm) error {
	var errs []error
	seen := make(map[string]struct{})
	ids := make(map[string]struct{})
	Walk(form.Fields, func(field Field, _ int) bool {
		ids[field.Base().ID] = struct{}{}
		return true
	})

	Walk(form.Fields, func(field Field, _ int) bool {
		base := field.Base()
		id := strings.TrimSpace(base.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("schema: form %q: field %q has an empty id", form.FormID, base.Label))
		} else if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("schema: form %q: duplicate field id %q", form.FormID, id))
		}
		seen[id] = struct{}{}

		if v := base.Visibility; v != nil {
			if _, ok := ids[v.DependsOn]; !ok {
				errs = append(errs, fmt.Errorf("schema: field %q: visibility depends on unknown field %q", id, v.DependsOn))
			}
		}

		switch typed := field.(type) {
		case *InputField:
			if typed.Validation != nil && typed.Validation.Pattern != "" {
				if _, err := regexp.Compile(typed.Validation.Pattern); err != nil {
					errs = append(errs, fmt.Errorf("schema: field %q: invalid pattern: %w", id, err))
				}
			}
		case *OptionField:
			if d := typed.DynamicOptions; d != nil {
				if _, ok := ids[d.DependsOn]; !ok {
					errs = append(errs, fmt.Errorf("schema: field %q: dynamic options depend on unknown field %q", id, d.DependsOn))
				}
				if strings.TrimSpace(d.Endpoint) == "" {
					errs = append(errs, fmt.Errorf("schema: field %q: dynamic options missing endpoint", id))
				}
			}
		case *GroupField:
		case *UnknownField:
			errs = append(errs, fmt.Errorf("%w %q (field %q)", ErrUnknownFieldType, typed.Type, id))
		}
		return true
	})

	return errors.Join(errs...)
}
