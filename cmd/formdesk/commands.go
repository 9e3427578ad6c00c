package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/renderers/html"
	"github.com/goliatone/go-formdesk/pkg/renderers/tui"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

func (a *app) listForms(ctx context.Context) error {
	forms, err := a.client.Forms(ctx)
	if err != nil {
		return err
	}
	tw := tablewriter.NewTable(a.out, tablewriter.WithRenderer(renderer.NewMarkdown()))
	tw.Header("Form", "Title", "Fields")
	for _, f := range forms {
		if err := tw.Append(f.FormID, f.Title, len(schema.AllFieldIDs(f.Fields))); err != nil {
			return err
		}
	}
	return tw.Render()
}

func (a *app) fill(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, err := a.session.OpenForm(ctx, args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	err = a.tuiRenderer().Run(ctx, f)
	if errors.Is(err, tui.ErrAborted) {
		f.Unload()
		a.logger.Info("fill interrupted, draft kept", zap.String("form", f.FormID()))
	}
	return err
}

// submissionFlags binds the server-side listing filters shared by the
// submissions and export table commands.
func submissionFlags(fs *flag.FlagSet) *schema.SubmissionsFilter {
	filter := &schema.SubmissionsFilter{}
	fs.StringVar(&filter.FormID, "form", "", "only submissions of this form")
	fs.StringVar((*string)(&filter.Status), "status", "", "only submissions with this status")
	fs.StringVar(&filter.DateFrom, "from", "", "submitted on or after (YYYY-MM-DD)")
	fs.StringVar(&filter.DateTo, "to", "", "submitted on or before (YYYY-MM-DD)")
	fs.StringVar(&filter.SearchTerm, "search", "", "server-side search term")
	return filter
}

func (a *app) submissions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submissions", flag.ContinueOnError)
	filter := submissionFlags(fs)
	browse := fs.Bool("browse", false, "open the interactive table browser")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	c, err := a.session.Submissions(ctx, filter)
	if err != nil {
		return err
	}
	if *browse {
		return a.tuiRenderer().Browse(ctx, c)
	}
	return tui.PrintTable(a.out, c, a.session.Translator(), a.session.Locale())
}

func (a *app) export(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	kind, rest := args[0], args[1:]

	fs := flag.NewFlagSet("export "+kind, flag.ContinueOnError)
	output := fs.String("output", "", "output file (stdout if empty)")
	templates := fs.String("templates", "", "directory overriding the built-in templates")
	title := fs.String("title", "Submissions", "page title for table exports")
	var filter *schema.SubmissionsFilter
	if kind == "table" {
		filter = submissionFlags(fs)
	}
	if err := fs.Parse(rest); err != nil {
		return errUsage
	}

	opts := []html.Option{html.WithTranslator(a.session.Translator(), a.session.Locale())}
	if *templates != "" {
		opts = append(opts, html.WithTemplatesDir(*templates))
	}
	r, err := html.New(opts...)
	if err != nil {
		return err
	}

	return writeOutput(a.out, *output, func(w io.Writer) error {
		switch kind {
		case "form":
			if fs.NArg() != 1 {
				return errUsage
			}
			f, err := a.session.OpenForm(ctx, fs.Arg(0))
			if err != nil {
				return err
			}
			defer f.Close()
			return r.RenderForm(w, f, nil)
		case "table":
			c, err := a.session.Submissions(ctx, filter)
			if err != nil {
				return err
			}
			return r.RenderTable(w, c, *title)
		default:
			return errUsage
		}
	})
}

func writeOutput(stdout io.Writer, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Written to %s\n", path)
	return nil
}
