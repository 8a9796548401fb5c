package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cinescope/errs"
	"cinescope/movie"
	"cinescope/movieapi"
	"cinescope/pkg/config"
	"cinescope/pkg/sentry"
	"cinescope/search"
	"cinescope/stash"
	"cinescope/terminal"

	tea "github.com/charmbracelet/bubbletea"
	sentrygo "github.com/getsentry/sentry-go"
)

func main() {
	os.Exit(run())
}

func run() int {
	query := flag.String("search", "", "search for this title on start")
	plain := flag.Bool("plain", false, "print results as plain text instead of the interactive screen")
	pages := flag.Int("pages", 0, "extra recommendation pages to load in plain mode")
	stashQuery := flag.String("stash", "", "keep a query for the next start and exit")
	logPath := flag.String("log", "", "write logs to this file in interactive mode")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot load config:", err)
		return 1
	}

	logger, closeLog, err := newLogger(*plain, *logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot open log file:", err)
		return 1
	}
	defer closeLog()
	slog.SetDefault(logger)

	err = sentrygo.Init(sentrygo.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		slog.Error("Cannot init sentry", "error", err)
		return 1
	}
	defer sentrygo.Flush(sentry.FlushTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stashFile, err := openStash(cfg)
	if err != nil {
		slog.Error("Cannot locate search stash", "error", err)
		return 1
	}

	if *stashQuery != "" {
		if err := stashFile.Put(ctx, *stashQuery); err != nil {
			fmt.Fprintln(os.Stderr, "Cannot stash query:", err)
			return 1
		}
		fmt.Printf("Stashed %q for the next start.\n", *stashQuery)
		return 0
	}

	client, err := movieapi.New(cfg.MovieService.URL,
		movieapi.WithTimeout(cfg.MovieService.Timeout),
		movieapi.WithRateLimit(cfg.MovieService.RateLimit),
		movieapi.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot create movie service client:", err)
		return 1
	}
	if cfg.MovieService.Username != "" {
		if err := client.Login(ctx, cfg.MovieService.Username, cfg.MovieService.Password); err != nil {
			fmt.Fprintln(os.Stderr, "Cannot log in to movie service:", err)
			return 1
		}
	}
	svc := movie.NewUsecase(client)

	if *plain {
		return runPlain(ctx, svc, stashFile, *query, *pages)
	}
	return runInteractive(ctx, svc, stashFile, *query, logger)
}

func runPlain(ctx context.Context, svc movie.Service, st search.Stash, query string, pages int) int {
	ctrl := search.NewController(svc, terminal.NewPrinter(os.Stdout), search.WithStash(st))

	if err := ctrl.Start(ctx, query); err != nil {
		report("search", err)
		return 1
	}
	if !ctrl.Session().Active() {
		fmt.Fprintln(os.Stderr, "Nothing to search: pass -search or stash a query first.")
		return 2
	}

	for i := 0; i < pages; i++ {
		err := ctrl.LoadMoreRecommendations(ctx)
		if errors.Is(err, search.ErrNoMoreRecommendations) {
			break
		}
		if err != nil {
			report("load more", err)
			return 1
		}
	}
	return 0
}

func runInteractive(ctx context.Context, svc movie.Service, st search.Stash, query string, logger *slog.Logger) int {
	view := terminal.NewProgramView()
	ctrl := search.NewController(svc, view, search.WithStash(st), search.WithLogger(logger))
	model := terminal.NewModel(ctx, ctrl, query, terminal.WithModelLogger(logger))

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	view.Attach(p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return 1
	}
	return 0
}

func openStash(cfg *config.Config) (*stash.File, error) {
	if cfg.StashPath != "" {
		return stash.NewFile(cfg.StashPath), nil
	}
	path, err := stash.DefaultPath()
	if err != nil {
		return nil, err
	}
	return stash.NewFile(path), nil
}

// newLogger writes text logs to stderr in plain mode. The interactive screen
// owns the terminal, so logs go to a file there or nowhere.
func newLogger(plain bool, path string) (*slog.Logger, func(), error) {
	if plain {
		return slog.New(slog.NewTextHandler(os.Stderr, nil)), func() {}, nil
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }, nil
}

func report(action string, err error) {
	slog.Info(action+" failed", "error", err)
	if errs.ErrorCode(err) == errs.EINTERNAL {
		sentry.WithTags(map[string]string{"action": action}).Error(err)
	}
}
