// Package template wraps a pongo2 template set behind a small renderer
// contract used by the HTML exporter.
package template
