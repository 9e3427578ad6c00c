// Package i18n resolves the handful of user-facing strings the form and table
// engines produce (validation messages, yes/no tokens, table hints). It is a
// seam, not a localisation framework: callers with their own catalogs plug in
// a Translator.
package i18n

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrMissingTranslation is returned when a key has no entry for a locale or
// for the fallback locale.
var ErrMissingTranslation = errors.New("i18n: missing translation")

// Translator resolves a message key for a locale. Args holds at most one
// map[string]any whose entries replace `{name}` placeholders.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// Message keys used across the engines.
const (
	KeyRequired         = "validation.required"
	KeyMin              = "validation.min"
	KeyMax              = "validation.max"
	KeyPattern          = "validation.pattern"
	KeyInvalid          = "validation.invalid"
	KeyInvalidSelection = "validation.invalidSelection"
	KeyUnknownFieldType = "form.unknownFieldType"
	KeyLoading          = "form.loading"
	KeyWaitingFor       = "form.waitingFor"
	KeyOptionsFailed    = "form.optionsFailed"
	KeyNoOptions        = "form.noOptions"
	KeyConfirmSubmit    = "form.confirmSubmit"
	KeySubmitted        = "form.submitted"
	KeyDraftSaved       = "form.draftSaved"
	KeyYes              = "table.yes"
	KeyNo               = "table.no"
	KeyEmptyCell        = "table.empty"
	KeySortAscending    = "table.sortAscending"
	KeySortDescending   = "table.sortDescending"
	KeyClearSort        = "table.clearSort"
	KeyShowing          = "table.showing"
	KeyPage             = "table.page"
)

// DefaultLocale is used when a caller does not specify one.
const DefaultLocale = "en"

var defaultMessages = map[string]map[string]string{
	"en": {
		KeyRequired:         "required",
		KeyMin:              "below minimum {min}",
		KeyMax:              "above maximum {max}",
		KeyPattern:          "does not match pattern",
		KeyInvalid:          "invalid",
		KeyInvalidSelection: "invalid selection",
		KeyUnknownFieldType: "unknown field type: {type}",
		KeyLoading:          "loading options...",
		KeyWaitingFor:       "waiting for {field}",
		KeyOptionsFailed:    "options unavailable",
		KeyNoOptions:        "no options available",
		KeyConfirmSubmit:    "Submit {title}?",
		KeySubmitted:        "Submitted.",
		KeyDraftSaved:       "Draft saved.",
		KeyYes:              "Yes",
		KeyNo:               "No",
		KeyEmptyCell:        "-",
		KeySortAscending:    "Click to sort ascending",
		KeySortDescending:   "Click to sort descending",
		KeyClearSort:        "Click to clear sorting",
		KeyShowing:          "Showing {visible} of {total} submissions",
		KeyPage:             "Page {page} of {pages}",
	},
	"de": {
		KeyRequired:         "Pflichtfeld",
		KeyMin:              "unter dem Minimum {min}",
		KeyMax:              "über dem Maximum {max}",
		KeyPattern:          "entspricht nicht dem Muster",
		KeyInvalid:          "ungültig",
		KeyInvalidSelection: "ungültige Auswahl",
		KeyUnknownFieldType: "unbekannter Feldtyp: {type}",
		KeyLoading:          "Optionen werden geladen...",
		KeyWaitingFor:       "wartet auf {field}",
		KeyOptionsFailed:    "Optionen nicht verfügbar",
		KeyNoOptions:        "keine Optionen verfügbar",
		KeyConfirmSubmit:    "{title} absenden?",
		KeySubmitted:        "Abgesendet.",
		KeyDraftSaved:       "Entwurf gespeichert.",
		KeyYes:              "Ja",
		KeyNo:               "Nein",
		KeyEmptyCell:        "-",
		KeySortAscending:    "Klicken für aufsteigende Sortierung",
		KeySortDescending:   "Klicken für absteigende Sortierung",
		KeyClearSort:        "Klicken zum Zurücksetzen der Sortierung",
		KeyShowing:          "{visible} von {total} Einreichungen",
		KeyPage:             "Seite {page} von {pages}",
	},
}

// Catalog is an in-memory Translator with locale fallback.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	fallback string
}

// NewCatalog returns a catalog seeded with the built-in English and German
// messages.
func NewCatalog() *Catalog {
	c := &Catalog{
		messages: make(map[string]map[string]string, len(defaultMessages)),
		fallback: DefaultLocale,
	}
	for locale, entries := range defaultMessages {
		c.Add(locale, entries)
	}
	return c
}

// Add merges entries into a locale.
func (c *Catalog) Add(locale string, entries map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	locale = normaliseLocale(locale)
	if c.messages[locale] == nil {
		c.messages[locale] = make(map[string]string, len(entries))
	}
	for key, value := range entries {
		c.messages[locale][key] = value
	}
}

// Translate implements Translator.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range []string{normaliseLocale(locale), baseLocale(locale), c.fallback} {
		if msg, ok := c.messages[candidate][key]; ok {
			return interpolate(msg, args), nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingTranslation, key, locale)
}

// T translates with t, falling back to the built-in English message and then
// to the key itself. It never fails.
func T(t Translator, locale, key string, params map[string]any) string {
	if t != nil {
		if msg, err := t.Translate(locale, key, params); err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	if msg, ok := defaultMessages[DefaultLocale][key]; ok {
		return interpolate(msg, []any{params})
	}
	return key
}

func interpolate(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	params, ok := args[0].(map[string]any)
	if !ok || len(params) == 0 {
		return msg
	}
	for name, value := range params {
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(value))
	}
	return msg
}

func normaliseLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		return DefaultLocale
	}
	return strings.ReplaceAll(locale, "_", "-")
}

func baseLocale(locale string) string {
	locale = normaliseLocale(locale)
	if idx := strings.Index(locale, "-"); idx > 0 {
		return locale[:idx]
	}
	return locale
}
