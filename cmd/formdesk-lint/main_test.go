package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const brokenCatalog = `forms:
  - formId: quote
    title: Quote
    fields:
      - {id: name, label: Name, type: text, required: true}
      - {id: name, label: Again, type: text, required: false}
      - id: plate
        label: Plate
        type: text
        required: false
        validation: {pattern: "(["}
  - formId: quote
    title: Copy
    fields:
      - {id: dial, label: Dial, type: slider, required: false}
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintFiles_ReportsProblems(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "forms.yaml", brokenCatalog)
	violations, err := lintFiles([]string{path})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}

	var buf bytes.Buffer
	report(&buf, violations)
	out := buf.String()
	for _, want := range []string{
		`duplicate field id "name"`,
		"invalid pattern",
		"duplicate formId",
		`"slider"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, path+": quote -> ") {
		t.Fatalf("unexpected report format:\n%s", out)
	}
}

func TestLintFiles_BundledCatalogsAreClean(t *testing.T) {
	t.Parallel()

	root := filepath.Join("..", "..")
	violations, err := lintFiles([]string{
		filepath.Join(root, "internal", "mockapi", "data", "forms.yaml"),
		filepath.Join(root, "pkg", "schema", "testdata", "forms.yaml"),
	})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) > 0 {
		var buf bytes.Buffer
		report(&buf, violations)
		t.Fatalf("expected no violations:\n%s", buf.String())
	}
}

func TestLintFiles_UnreadableFile(t *testing.T) {
	t.Parallel()

	if _, err := lintFiles([]string{filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
