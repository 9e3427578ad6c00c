package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk"
	"github.com/goliatone/go-formdesk/internal/config"
	"github.com/goliatone/go-formdesk/internal/logging"
	"github.com/goliatone/go-formdesk/pkg/apiclient"
	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/renderers/tui"
)

const usage = `Usage: %s [flags] <command> [args]

Commands:
  forms                     list the forms offered by the API
  fill <formId>             answer a form interactively and submit it
  submissions [flags]       print or browse submitted applications
  export form <formId>      write a form as a standalone HTML page
  export table              write the submissions table as HTML

Flags:
`

func main() {
	configPath := flag.String("config", "", "config file (config.yaml in the working directory if empty)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment is read")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, usage, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.close()

	err = app.run(ctx, flag.Arg(0), flag.Args()[1:])
	switch {
	case err == nil:
	case errors.Is(err, tui.ErrNotSubmitted):
	case errors.Is(err, errUsage):
		flag.Usage()
		os.Exit(2)
	case errors.Is(err, tui.ErrAborted):
		os.Exit(130)
	default:
		logger.Error("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer
	client     *apiclient.Client
	session    *formdesk.Session
	translator i18n.Translator
	closeDraft func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) (*app, error) {
	client, err := apiclient.New(cfg.API.URL,
		apiclient.WithToken(cfg.API.Token),
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(logger.Named("api")),
	)
	if err != nil {
		return nil, err
	}

	store, closeDraft, err := openDraftStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("draft store: %w", err)
	}

	translator := i18n.NewCatalog()
	session, err := formdesk.NewSession(client,
		formdesk.WithLogger(logger),
		formdesk.WithDraftStore(store),
		formdesk.WithAutosaveDelay(cfg.Draft.AutosaveDelay),
		formdesk.WithTranslator(translator, cfg.UI.Locale),
		formdesk.WithPageSize(cfg.UI.PageSize),
	)
	if err != nil {
		_ = closeDraft()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		out:        out,
		client:     client,
		session:    session,
		translator: translator,
		closeDraft: closeDraft,
	}, nil
}

func (a *app) close() {
	if err := a.closeDraft(); err != nil {
		a.logger.Warn("close draft store", zap.Error(err))
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "forms":
		return a.listForms(ctx)
	case "fill":
		return a.fill(ctx, args)
	case "submissions":
		return a.submissions(ctx, args)
	case "export":
		return a.export(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		return errUsage
	}
}

func (a *app) tuiRenderer() *tui.Renderer {
	return tui.New(
		tui.WithPromptDriver(tui.NewSurveyDriver(a.out)),
		tui.WithOutput(a.out),
		tui.WithTranslator(a.translator, a.cfg.UI.Locale),
		tui.WithLogger(a.logger.Named("tui")),
	)
}
