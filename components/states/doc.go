// Package states serves the states or provinces of a country as a dependent
// option endpoint (GET /api/getStates?country=<name>).
//
// The handler answers GET and HEAD requests with a JSON array of names, or
// with a {country, states} object when configured with ShapeObject. The
// backing data is loaded from the embedded data/states.yaml.
package states
