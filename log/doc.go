// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is configured once with functional options and is immutable
// afterwards; [Logger.Wrap] and [Logger.With] derive new loggers.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"))
//
//	logger.Debug("parsed", log.Template("index.html"), log.Elapsed(d))
//
// The zero Logger discards everything, so components can embed one without
// requiring configuration.
//
// # Levels
//
// In addition to the [log/slog] levels, [LevelTrace] sits below
// [LevelDebug] and is used for per-expression detail.
//
// # Pretty Output
//
// With [WithPretty] enabled, text records are written as unquoted key=value
// pairs and JSON records are indented. Keys, values and levels are colored
// with [github.com/charmbracelet/lipgloss] when the output is a terminal
// that supports it.
//
// # Package-level Logger
//
// The package-level functions ([Info], [Error], ...) write to the logger
// returned by [Default], which [Config] and [SetDefault] replace.
// Context-unaware functions use [DefaultContextProvider].
package log
