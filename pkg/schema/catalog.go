package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrFormNotFound is returned when a catalog lookup misses.
var ErrFormNotFound = errors.New("schema: form not found")

// Catalog is an ordered, id-indexed set of form definitions.
type Catalog struct {
	forms []InsuranceForm
	index map[string]int
}

// NewCatalog indexes the supplied forms, rejecting duplicate form ids.
func NewCatalog(forms []InsuranceForm) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(forms))}
	for _, form := range forms {
		if err := c.add(form); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(form InsuranceForm) error {
	id := strings.TrimSpace(form.FormID)
	if id == "" {
		return fmt.Errorf("schema: form %q has an empty formId", form.Title)
	}
	if _, exists := c.index[id]; exists {
		return fmt.Errorf("schema: duplicate form %q", id)
	}
	c.index[id] = len(c.forms)
	c.forms = append(c.forms, form)
	return nil
}

// Forms returns the forms in load order.
func (c *Catalog) Forms() []InsuranceForm {
	if c == nil {
		return nil
	}
	return append([]InsuranceForm(nil), c.forms...)
}

// Find returns the form with the given id.
func (c *Catalog) Find(formID string) (InsuranceForm, error) {
	if c != nil {
		if idx, ok := c.index[strings.TrimSpace(formID)]; ok {
			return c.forms[idx], nil
		}
	}
	return InsuranceForm{}, fmt.Errorf("%w: %q", ErrFormNotFound, formID)
}

// Find looks a form up in a plain slice, as returned by the forms endpoint.
func Find(forms []InsuranceForm, formID string) (InsuranceForm, error) {
	for _, form := range forms {
		if form.FormID == formID {
			return form, nil
		}
	}
	return InsuranceForm{}, fmt.Errorf("%w: %q", ErrFormNotFound, formID)
}

// LoadFS walks fsys and loads every JSON or YAML catalog file. A file holds
// either an array of forms or an object with a `forms` array.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{index: make(map[string]int)}
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		forms, err := ParseCatalog(data, path)
		if err != nil {
			return err
		}
		for _, form := range forms {
			if err := catalog.add(form); err != nil {
				return fmt.Errorf("%w (file %s)", err, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// ParseCatalog decodes JSON or YAML catalog content. YAML is normalised to
// the JSON wire shape so both formats share one decoder.
func ParseCatalog(data []byte, source string) ([]InsuranceForm, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("schema: file %s is empty", source)
	}

	raw := data
	if !json.Valid(data) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("schema: parse %s: invalid JSON or YAML: %w", source, err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", source, err)
		}
		raw = converted
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Forms json.RawMessage `json:"forms"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", source, err)
		}
		if len(wrapped.Forms) == 0 {
			return nil, fmt.Errorf("schema: file %s has no forms", source)
		}
		raw = wrapped.Forms
	}

	forms, err := DecodeForms(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", source, err)
	}
	return forms, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
