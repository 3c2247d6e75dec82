package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/brace/cli/cmd"
	"github.com/ardnew/brace/pkg"
)

// CLI is the top-level command-line interface for brace.
type CLI struct {
	Log    logConfig   `embed:"" group:"log"    prefix:"log-"`
	Pprof  pprofConfig `embed:"" group:"pprof"  prefix:"pprof-"`
	Engine cmd.Engine  `embed:"" group:"engine"`

	Init    cmd.Init    `cmd:"" help:"Initialize configuration file"`
	Version cmd.Version `cmd:"" help:"Print version information"`
	AST     cmd.AST     `cmd:"" help:"Print the parsed node tree of a template" name:"ast"`
	Check   cmd.Check   `cmd:"" help:"Compare rendered templates with expected output"`
	Repl    cmd.Repl    `cmd:"" help:"Render template snippets interactively"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render templates"`
}

// Run executes the brace CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	vars := kong.Vars{
		cmd.ConfigIdentifier: pkg.ConfigPath(baseConfig + ".yaml"),
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Engine.Vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that the logger is configured before kong
	// reports any error, regardless of flag position.
	cli.Log.scan(args)

	options := []kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{
			cli.Log.group(),
			cli.Pprof.group(),
			cli.Engine.Group(),
		}),
		// The provider reads ctx when a command runs, after it has been
		// extended below.
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		vars,
	}

	parser, err := kong.New(&cli, append(options, configLoaders()...)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli.Engine)
}
