package cmd

import (
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// dataDecoders maps data file extensions to their decoders.
var dataDecoders = map[string]func([]byte, any) error{
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".json": json.Unmarshal,
	".toml": toml.Unmarshal,
}

// loadData reads the data files in order and applies sets on top.
//
// Each file must hold a table at the top level. Top-level keys of later files
// replace those of earlier ones. Set keys are dotted paths into nested tables
// and their values are parsed as YAML scalars, so "n=3" sets a number and
// "ok=true" a boolean.
func loadData(files []string, sets map[string]string) (map[string]any, error) {
	data := make(map[string]any)

	for _, file := range files {
		doc, err := readData(file)
		if err != nil {
			return nil, err
		}

		maps.Copy(data, doc)
	}

	// Sorted so that "a=1" is applied before "a.b=2".
	for _, key := range slices.Sorted(maps.Keys(sets)) {
		if err := setPath(data, key, parseScalar(sets[key])); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func readData(file string) (map[string]any, error) {
	attr := slog.String("file", file)

	decode, ok := dataDecoders[strings.ToLower(filepath.Ext(file))]
	if !ok {
		return nil, ErrDataFormat.With(attr)
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return nil, ErrReadData.With(attr).Wrap(err)
	}

	var doc map[string]any

	if err := decode(b, &doc); err != nil {
		return nil, ErrReadData.With(attr).Wrap(err)
	}

	return doc, nil
}

// parseScalar returns s decoded as a YAML value, or s itself if it is not
// valid YAML.
func parseScalar(s string) any {
	var v any

	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}

	return v
}

// setPath stores value in data at the dotted key path, creating or replacing
// intermediate tables as needed.
func setPath(data map[string]any, path string, value any) error {
	keys := strings.Split(path, ".")
	if slices.Contains(keys, "") {
		return ErrSetValue.With(slog.String("key", path))
	}

	m := data

	for _, key := range keys[:len(keys)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}

		m = next
	}

	m[keys[len(keys)-1]] = value

	return nil
}
