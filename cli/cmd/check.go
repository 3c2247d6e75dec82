package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/k14s/difflib"

	"github.com/ardnew/brace/log"
)

// Check renders a template and compares the result with expected output.
type Check struct {
	Template string `arg:"" help:"Template file or '-' for stdin" type:"existingfile"`
	Expected string `arg:"" help:"File holding the expected output"  type:"existingfile"`
}

// Run executes the check command. On mismatch it prints a diff of the
// expected and rendered output and returns ErrOutputMismatch.
func (c *Check) Run(ctx context.Context, eng *Engine) (err error) {
	s, err := eng.open(ctx)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, s.Close()) }()

	want, err := os.ReadFile(c.Expected)
	if err != nil {
		return ErrReadData.With(slog.String("file", c.Expected)).Wrap(err)
	}

	srcs, err := openSources([]string{c.Template})
	if err != nil {
		return ErrOpenTemplate.Wrap(err)
	}

	defer closeSources(srcs)

	t, err := s.parse(ctx, srcs[0].Name, srcs[0])
	if err != nil {
		return err
	}

	got, err := s.render(ctx, t)
	if err != nil {
		return err
	}

	if diff := diffLines(string(want), got); diff != "" {
		if _, err := io.WriteString(stdout(ctx), diff); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return ErrOutputMismatch.With(log.Template(c.Template), slog.String("expected", c.Expected))
	}

	log.InfoContext(ctx, "output matches", log.Template(c.Template))

	return nil
}

// diffLines returns a line diff of want and got, or "" if they are equal.
func diffLines(want, got string) string {
	if want == got {
		return ""
	}

	return difflib.PPDiff(strings.Split(want, "\n"), strings.Split(got, "\n"))
}
