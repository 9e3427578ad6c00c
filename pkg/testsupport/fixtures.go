// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// MustLoadCatalog parses a YAML or JSON catalog file.
func MustLoadCatalog(t *testing.T, path string) *schema.Catalog {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read catalog %s: %v", path, err)
	}
	forms, err := schema.ParseCatalog(data, filepath.Base(path))
	if err != nil {
		t.Fatalf("parse catalog %s: %v", path, err)
	}
	catalog, err := schema.NewCatalog(forms)
	if err != nil {
		t.Fatalf("index catalog %s: %v", path, err)
	}
	return catalog
}

// MustLoadForm returns one form from a catalog file.
func MustLoadForm(t *testing.T, path, formID string) schema.InsuranceForm {
	t.Helper()
	form, err := MustLoadCatalog(t, path).Find(formID)
	if err != nil {
		t.Fatalf("find form %s: %v", formID, err)
	}
	return form
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
