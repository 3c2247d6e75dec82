package tmpl

import "io"

// TemplateLocator finds the source of a template by id.
type TemplateLocator interface {
	Priority() int
	Locate(id string) (*TemplateLocation, bool)
}

// TemplateLocation is the source of a located template.
type TemplateLocation struct {
	// Open returns a reader of the template content.
	Open func() (io.ReadCloser, error)
	// Variant is the content variant; the zero value means unknown.
	Variant Variant
	// Name is a display name such as a file path.
	Name string
}
