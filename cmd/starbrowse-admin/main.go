// Command starbrowse-admin bundles the catalog maintenance tools: database
// repair, image dimension backfill, in-place optimization, and catalog
// export.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"starbrowse/internal/startup"
)

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(startup.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
