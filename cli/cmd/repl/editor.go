package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/brace/log"
)

const defaultEditor = "vi"

// editDataCommand implements [tea.ExecCommand] for the data edit-parse-retry
// loop. It writes the current data as YAML to a temp file, opens the user's
// editor, and decodes the result. On decode error the user is prompted to
// re-edit; declining exits the program.
type editDataCommand struct {
	data    map[string]any
	ctxFunc func() context.Context
	newData map[string]any
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editDataCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editDataCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editDataCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. If the user clears the file, newData is left
// nil. If the user declines to re-edit, it returns [ErrEditDeclined].
func (c *editDataCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "brace-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		edited, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if len(bytes.TrimSpace(edited)) == 0 {
			return nil
		}

		data, decodeErr := decodeData(edited)
		c.logger.TraceContext(
			ctx,
			"editor decode attempt",
			slog.Int("content_length", len(edited)),
			slog.Bool("success", decodeErr == nil),
		)

		if decodeErr == nil {
			c.newData = data

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = edited
	}
}

// decodeData decodes a YAML mapping. A document that is not a mapping is an
// error.
func decodeData(b []byte) (map[string]any, error) {
	var data map[string]any
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, err
	}

	if data == nil {
		data = map[string]any{}
	}

	return data, nil
}

// runEditor launches the user's editor on the file at path and returns the
// edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
