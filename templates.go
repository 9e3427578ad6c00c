package formdesk

import (
	"io/fs"

	"github.com/goliatone/go-formdesk/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in HTML export templates so callers
// can copy or override them without importing the renderer package.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
