// Package cli contains the command line interface for brace.
//
// # Usage
//
//	brace [flags] TEMPLATE...
//	brace check TEMPLATE EXPECTED
//	brace ast [--format=text|json|yaml] TEMPLATE
//	brace repl
//	brace init [--force]
//
// Rendering is the default command. Data is read from --data files (YAML,
// JSON or TOML, chosen by file extension) and --set assignments:
//
//	brace --data site.yaml --set page.title=Home index.html
//
// # Configuration
//
// Flag defaults are read from config.json, config.toml, config.yml and
// config.yaml in the user configuration directory, e.g. ~/.config/brace.
// Nested tables are flattened by joining keys with hyphens, so the following
// YAML document sets --log-level and --timeout:
//
//	log:
//	  level: debug
//	timeout: 2s
//
// The init command writes the current flag values to config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize output written to a terminal
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o brace .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/brace/pprof)
package cli
