// Package draft persists in-progress form values so a user can resume a form
// after leaving it. Persistence is best effort: storage failures are logged
// and never surface to the form.
package draft

import (
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// KeyPrefix is prepended to the form id to build the storage key.
const KeyPrefix = "form_data_"

// Key returns the storage key of a form's draft.
func Key(formID string) string {
	return KeyPrefix + formID
}

// Drafts reads and writes serialized form values through a Store.
type Drafts struct {
	store  Store
	logger *zap.Logger
}

// Option configures Drafts.
type Option func(*Drafts)

// WithLogger routes storage failures to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Drafts) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New wraps store. A nil store behaves like NoopStore.
func New(store Store, opts ...Option) *Drafts {
	if store == nil {
		store = NoopStore{}
	}
	d := &Drafts{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Save serializes values under the form's key. Failures are logged and
// reported as false.
func (d *Drafts) Save(formID string, values map[string]any) bool {
	if d == nil {
		return false
	}
	if values == nil {
		values = map[string]any{}
	}
	payload, err := sonic.MarshalString(values)
	if err != nil {
		d.logger.Warn("draft: encode failed", zap.String("form_id", formID), zap.Error(err))
		return false
	}
	if err := d.store.Set(Key(formID), payload); err != nil {
		d.logger.Warn("draft: save failed", zap.String("form_id", formID), zap.Error(err))
		return false
	}
	d.logger.Debug("draft saved", zap.String("form_id", formID), zap.Int("fields", len(values)))
	return true
}

// Load returns the stored values for a form. A missing, unreadable or
// corrupt draft yields (nil, false).
func (d *Drafts) Load(formID string) (map[string]any, bool) {
	if d == nil {
		return nil, false
	}
	raw, ok, err := d.store.Get(Key(formID))
	if err != nil {
		d.logger.Warn("draft: load failed", zap.String("form_id", formID), zap.Error(err))
		return nil, false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}
	var values map[string]any
	if err := sonic.UnmarshalString(raw, &values); err != nil {
		d.logger.Warn("draft: corrupt payload discarded", zap.String("form_id", formID), zap.Error(err))
		return nil, false
	}
	if values == nil {
		return nil, false
	}
	return values, true
}

// Clear removes a form's draft.
func (d *Drafts) Clear(formID string) {
	if d == nil {
		return
	}
	if err := d.store.Remove(Key(formID)); err != nil {
		d.logger.Warn("draft: clear failed", zap.String("form_id", formID), zap.Error(err))
	}
}
