package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/brace/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config"

// configLoaders returns the kong configuration options for every supported
// configuration file below the configuration directory. When several set the
// same flag, the YAML file takes precedence over TOML, and TOML over JSON.
func configLoaders() []kong.Option {
	base := pkg.ConfigPath(baseConfig)

	return []kong.Option{
		kong.Configuration(kong.JSON, base+".json"),
		kong.Configuration(resolve(toml.Unmarshal), base+".toml"),
		kong.Configuration(resolve(yaml.Unmarshal), base+".yml", base+".yaml"),
	}
}
