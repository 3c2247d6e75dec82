package cmd

import (
	"context"
	"errors"

	"github.com/ardnew/brace/cli/cmd/repl"
	"github.com/ardnew/brace/log"
	"github.com/ardnew/brace/pkg"
)

// Repl starts an interactive session rendering template snippets against
// the loaded data.
type Repl struct{}

// Run executes the repl command.
func (*Repl) Run(ctx context.Context, eng *Engine) (err error) {
	s, err := eng.open(ctx)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, s.Close()) }()

	cacheDir := pkg.CacheDir()
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok && dir != "" {
			cacheDir = dir
		}
	}

	return repl.Run(ctx, repl.Config{
		Engine:   s.Engine,
		Data:     s.data,
		Variant:  s.variant,
		CacheDir: cacheDir,
		Logger:   log.Default(),
	})
}
