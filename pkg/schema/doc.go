// Package schema defines the typed representation of a form definition as
// served by the backend. Fields form a closed sum type (input, option, group
// and an unknown placeholder) decoded from JSON or YAML by their `type`
// attribute. Groups nest arbitrarily deep; ids are unique across the whole
// tree because drafts, validation and submission share one flat value map.
package schema
