package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint form catalogs (JSON or YAML) for structural problems.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{
			"internal/mockapi/data/forms.yaml",
			"pkg/schema/testdata/forms.yaml",
		}
	}

	violations, err := lintFiles(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		report(os.Stderr, violations)
		os.Exit(1)
	}
}

func lintFiles(paths []string) ([]violation, error) {
	var violations []violation
	owners := make(map[string]string)
	for _, path := range paths {
		linted, err := lintFile(path, owners)
		if err != nil {
			return nil, fmt.Errorf("lint %s: %w", path, err)
		}
		violations = append(violations, linted...)
	}
	return violations, nil
}

// lintFile checks every form in path. owners maps form ids to the file that
// first declared them so duplicates across files are reported too.
func lintFile(path string, owners map[string]string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	forms, err := schema.ParseCatalog(raw, path)
	if err != nil {
		return nil, err
	}

	var result []violation
	for i, form := range forms {
		location := form.FormID
		if location == "" {
			location = fmt.Sprintf("forms[%d]", i)
			result = append(result, violation{file: path, location: location, message: "form has no formId"})
		} else if first, dup := owners[form.FormID]; dup {
			result = append(result, violation{
				file:     path,
				location: location,
				message:  fmt.Sprintf("duplicate formId (first declared in %s)", first),
			})
		} else {
			owners[form.FormID] = path
		}

		for _, problem := range flatten(schema.Check(form)) {
			result = append(result, violation{file: path, location: location, message: problem.Error()})
		}
	}
	return result, nil
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func report(w io.Writer, violations []violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(w, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
}
