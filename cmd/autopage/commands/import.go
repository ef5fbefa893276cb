package commands

import (
	"context"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/watch"
)

// ImportCmd implements the 'import' command.
type ImportCmd struct {
	Dir string `arg:"" help:"Directory of .wiki and .md files" type:"existingdir"`
}

func (i *ImportCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	rt, err := root.openRuntime(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	report, err := watch.ImportDir(ctx, rt.Engine, i.Dir, g.logger())
	if err != nil {
		return err
	}

	out := g.out()
	fmt.Fprintf(out, "Imported %d pages, auto-created %d\n", len(report.Saved), len(report.AutoCreated))
	failed := make([]string, 0, len(report.Failed))
	for path := range report.Failed {
		failed = append(failed, path)
	}
	sort.Strings(failed)
	for _, path := range failed {
		fmt.Fprintf(out, "Failed %s: %v\n", path, report.Failed[path])
	}
	if len(failed) > 0 {
		return errors.ValidationError("some files could not be imported").
			WithContext("failed", len(failed)).
			Warning().
			Build()
	}
	return nil
}
