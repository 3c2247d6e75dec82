package cli

import (
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/cast"

	"github.com/ardnew/brace/log"
)

// decoder unmarshals a configuration document into v.
type decoder func(data []byte, v any) error

// resolve returns a [kong.ConfigurationLoader] for configuration documents
// decoded by decode.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(yaml.Unmarshal), "/path/to/config.yaml")
//
// Nested tables are flattened by joining their keys with hyphens, so both of
// the following YAML documents set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Keys may use underscores in place of hyphens. A document that cannot be
// decoded is logged and treated as empty. Command-line flags override
// configuration file values.
func resolve(decode decoder) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		var doc map[string]any

		if err := decode(data, &doc); err != nil {
			log.Warn("ignoring invalid configuration", log.Err(err))

			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] over a flattened configuration document.
type config map[string]string

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

// flatten stores every leaf of doc under its hyphen-joined key path.
// Kong parses flag values from strings, so every leaf is stored as one.
func (c config) flatten(prefix string, doc map[string]any) {
	for key, value := range doc {
		if prefix != "" {
			key = prefix + "-" + key
		}

		switch v := value.(type) {
		case map[string]any:
			if slices.Contains(mapFlags, key) {
				c[key] = joinMap(v)
			} else {
				c.flatten(key, v)
			}

		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, stringify(item))
			}

			c[key] = strings.Join(items, ",")

		default:
			c[key] = stringify(v)
		}
	}
}

// mapFlags are the flags of map type. Their tables are joined into the
// "k=v;k=v" form kong parses rather than flattened.
var mapFlags = []string{"set"}

func joinMap(m map[string]any) string {
	items := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		items = append(items, k+"="+stringify(m[k]))
	}

	return strings.Join(items, ";")
}

func stringify(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		log.Debug("configuration value is not a scalar",
			slog.Any("value", v), log.Err(err))
	}

	return s
}
