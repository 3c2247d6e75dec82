package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/brace/log"
	"github.com/ardnew/brace/pkg"
)

// Render renders templates against the loaded data.
type Render struct {
	Templates []string `arg:"" help:"Template file(s) or '-' for stdin" name:"template" optional:"" type:"existingfile"`

	Output string `help:"Write each result to a file of the same name in this directory" placeholder:"DIR" short:"o" type:"path"`
	Jobs   int    `default:"0"                                                          help:"Maximum concurrent renders (0 uses all CPUs)" short:"j"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context, eng *Engine) (err error) {
	s, err := eng.open(ctx)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, s.Close()) }()

	paths := r.Templates
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	srcs, err := openSources(paths)
	if err != nil {
		return ErrOpenTemplate.Wrap(err)
	}

	defer closeSources(srcs)

	out := make([]string, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs())

	for i, src := range srcs {
		g.Go(func() error {
			t, err := s.parse(gctx, src.Name, src)
			if err != nil {
				return err
			}

			out[i], err = s.render(gctx, t)

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.DebugContext(ctx, "rendered", slog.Int("templates", len(srcs)))

	return r.write(ctx, srcs, out)
}

func (r *Render) jobs() int {
	if r.Jobs > 0 {
		return r.Jobs
	}

	return runtime.GOMAXPROCS(0)
}

// write emits the results in template order, to stdout or to files below
// the output directory.
func (r *Render) write(ctx context.Context, srcs []Source, out []string) error {
	if r.Output == "" {
		w := stdout(ctx)

		for _, s := range out {
			if _, err := io.WriteString(w, s); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}

		return nil
	}

	if err := os.MkdirAll(r.Output, pkg.DirMode); err != nil {
		return ErrWriteOutput.With(slog.String("dir", r.Output)).Wrap(err)
	}

	for i, src := range srcs {
		name := filepath.Base(src.Name)
		if src.IsStdin() {
			name = "stdin"
		}

		path := filepath.Join(r.Output, name)

		if err := os.WriteFile(path, []byte(out[i]), 0o644); err != nil { //nolint:gosec
			return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
		}

		log.DebugContext(ctx, "wrote output", log.Template(src.Name), slog.String("file", path))
	}

	return nil
}

// stdout returns the standard output of the kong context in ctx, or
// [os.Stdout] if there is none.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}
