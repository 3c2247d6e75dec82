package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/brace/pkg"
)

// Version prints the program version.
type Version struct{}

// Run executes the version command.
func (*Version) Run(ctx context.Context) error {
	_, err := fmt.Fprintf(stdout(ctx), "%s %s\n", pkg.Name, pkg.Version)

	return wrapWrite(err)
}
