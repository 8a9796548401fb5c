package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinescope/httpserver"
	"cinescope/movie"
	"cinescope/movieapi"
	"cinescope/pkg/config"
	"cinescope/pkg/sentry"
	"cinescope/postgres"
	"cinescope/search"

	sentrygo "github.com/getsentry/sentry-go"
	_ "github.com/lib/pq"
)

// stashRetention is how long an unclaimed handoff query is kept.
const stashRetention = 24 * time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Cannot load config", "error", err)
		os.Exit(1)
	}

	err = sentrygo.Init(sentrygo.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		slog.Error("Cannot init sentry", "error", err)
		os.Exit(1)
	}
	defer sentrygo.Flush(sentry.FlushTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := movieapi.New(cfg.MovieService.URL,
		movieapi.WithTimeout(cfg.MovieService.Timeout),
		movieapi.WithRateLimit(cfg.MovieService.RateLimit),
		movieapi.WithLogger(logger),
	)
	if err != nil {
		slog.Error("Cannot create movie service client", "error", err)
		os.Exit(1)
	}
	if cfg.MovieService.Username != "" {
		if err := client.Login(ctx, cfg.MovieService.Username, cfg.MovieService.Password); err != nil {
			slog.Error("Cannot log in to movie service", "error", err)
			os.Exit(1)
		}
	}

	options := []httpserver.Options{
		httpserver.WithMovieService(movie.NewUsecase(client)),
		httpserver.WithLogger(logger),
	}

	if cfg.HasDatabase() {
		db, err := postgres.NewConnection(postgres.Options{
			DBName:       cfg.DB.Name,
			DBUser:       cfg.DB.User,
			Password:     cfg.DB.Pass,
			Host:         cfg.DB.Host,
			Port:         fmt.Sprintf("%d", cfg.DB.Port),
			SSLMode:      cfg.DB.EnableSSL,
			MaxOpenConns: 10,
		})
		if err != nil {
			slog.Error("Cannot open postgres connection", "error", err)
			os.Exit(1)
		}

		stashes := postgres.NewStashRepository(db)
		options = append(options, httpserver.WithStash(func(sid string) search.Stash {
			return stashes.ForSession(sid)
		}))
		go purgeStashes(ctx, stashes)
	} else {
		slog.Warn("DB_HOST or DB_NAME not set, search stash disabled")
	}

	server, err := httpserver.New(cfg, options...)
	if err != nil {
		slog.Error("Cannot create server", "error", err)
		os.Exit(1)
	}
	server.Addr = fmt.Sprintf(":%d", cfg.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server started!", "addr", server.Addr, "movie_service", cfg.MovieService.URL)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func purgeStashes(ctx context.Context, repo *postgres.StashRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Purge(ctx, time.Now().Add(-stashRetention))
			if err != nil {
				slog.Error("cannot purge search stash", "error", err)
				sentry.Error(err)
				continue
			}
			if n > 0 {
				slog.Info("purged search stash", "rows", n)
			}
		}
	}
}
