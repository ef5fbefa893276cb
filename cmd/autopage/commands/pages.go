package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/wiki"
)

// SaveCmd implements the 'save' command.
type SaveCmd struct {
	Title   string `arg:"" help:"Page title"`
	File    string `short:"f" help:"Read content from this file instead of stdin" type:"existingfile"`
	User    string `short:"u" help:"Author of the revision"`
	Summary string `short:"m" help:"Edit summary"`

	stdin io.Reader
}

func (s *SaveCmd) Run(g *Global, root *CLI) error {
	content, err := s.content()
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := root.openRuntime(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	res, err := rt.Engine.Save(ctx, wiki.SaveRequest{Title: s.Title, Content: content, User: s.User, Summary: s.Summary})
	if err != nil {
		return err
	}

	out := g.out()
	verb := "Updated"
	if res.NewPage {
		verb = "Created"
	}
	fmt.Fprintf(out, "%s %s (revision %d)\n", verb, res.Title.PrefixedText(), res.Revision.ID)
	for _, t := range res.AutoCreated {
		fmt.Fprintf(out, "Auto-created %s\n", t.PrefixedText())
	}
	return nil
}

func (s *SaveCmd) content() (string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case s.File != "":
		data, err = os.ReadFile(s.File)
	case s.stdin != nil:
		data, err = io.ReadAll(s.stdin)
	default:
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "failed to read page content").Build()
	}
	return string(data), nil
}

// ShowCmd implements the 'show' command.
type ShowCmd struct {
	Title string `arg:"" help:"Page title"`
	HTML  bool   `help:"Print rendered HTML instead of wikitext"`
}

func (s *ShowCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	rt, err := root.openRuntime(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	page, err := rt.Engine.Render(ctx, s.Title)
	if err != nil {
		return err
	}

	out := g.out()
	if s.HTML {
		_, err = io.WriteString(out, page.Output.HTML)
		return err
	}
	fmt.Fprintf(out, "== %s (revision %d by %s) ==\n", page.Title.PrefixedText(), page.Revision.ID, page.Revision.User)
	if prov, ok := rt.Provenance.CreatedBy(page.Title.PrefixedText()); ok {
		fmt.Fprintf(out, "Auto-created from %s\n", prov.Source)
	}
	_, err = io.WriteString(out, strings.TrimRight(page.Revision.Content, "\n")+"\n")
	return err
}

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Title string `arg:"" help:"Page title"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	rt, err := root.openRuntime(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	_, revs, err := rt.Engine.History(ctx, h.Title)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REVISION\tTIMESTAMP\tUSER\tSUMMARY")
	for _, rev := range revs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rev.ID, rev.Timestamp.UTC().Format("2006-01-02 15:04:05"), rev.User, rev.Summary)
	}
	return tw.Flush()
}
