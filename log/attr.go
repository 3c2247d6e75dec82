package log

import (
	"log/slog"
	"time"
)

// Attribute keys shared by the template engine and its commands.
const (
	KeyTemplate = "template"
	KeyElapsed  = "elapsed"
	KeyError    = "error"
)

// Template returns an attribute identifying a template by id.
func Template(id string) slog.Attr { return slog.String(KeyTemplate, id) }

// Elapsed returns an attribute holding a duration.
func Elapsed(d time.Duration) slog.Attr { return slog.Duration(KeyElapsed, d) }

// Err returns an attribute holding err. Errors implementing [slog.LogValuer]
// are expanded by the handler.
func Err(err error) slog.Attr { return slog.Any(KeyError, err) }
