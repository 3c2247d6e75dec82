// Package cmd provides the brace subcommands: render, check, ast, init, repl
// and version, along with the engine flags they share.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file written by [Init].
	ConfigIdentifier = "config"
)
