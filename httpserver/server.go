package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cinescope/errs"
	"cinescope/movie"
	"cinescope/pkg/config"
	"cinescope/pkg/jwt"
	"cinescope/pkg/sentry"
	"cinescope/search"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// StashFactory returns the handoff stash of one browser session.
type StashFactory func(sid string) search.Stash

type Server struct {
	// Router is the Echo router instance
	Router *echo.Echo

	// Addr represents the address the server will listen on
	Addr string

	// Allowed origins for CORS
	AllowOrigins []string

	MovieService movie.Service

	Stash StashFactory

	Sessions *SessionRegistry

	Logger *slog.Logger

	// ActionTimeout bounds a page action that keeps running after its redirect.
	ActionTimeout time.Duration

	actions sync.WaitGroup
}

type Options func(s *Server) error

func WithMovieService(svc movie.Service) Options {
	return func(s *Server) error {
		s.MovieService = svc
		return nil
	}
}

func WithStash(f StashFactory) Options {
	return func(s *Server) error {
		s.Stash = f
		return nil
	}
}

func WithLogger(l *slog.Logger) Options {
	return func(s *Server) error {
		s.Logger = l
		return nil
	}
}

func New(cfg *config.Config, options ...Options) (*Server, error) {
	s := Server{
		Router:        echo.New(),
		Addr:          ":8080",
		AllowOrigins:  []string{"*"},
		Logger:        slog.Default(),
		ActionTimeout: 30 * time.Second,
	}
	if origins := cfg.Origins(); len(origins) > 0 {
		s.AllowOrigins = origins
	}

	for _, fn := range options {
		if err := fn(&s); err != nil {
			return nil, err
		}
	}

	secret := cfg.Session.Secret
	if secret == "" {
		secret = uuid.NewString()
		s.Logger.Warn("SESSION_SECRET is empty, sessions will not survive a restart")
	}
	s.Sessions = NewSessionRegistry(jwt.NewSessionProvider(secret, 0), s.newController, cfg.Session.IdleTTL)
	s.Sessions.secure = cfg.AppEnv == "production"

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	s.Router.HideBanner = true
	s.Router.Renderer = renderer
	s.Router.Validator = NewValidator()
	s.Router.HTTPErrorHandler = s.customHTTPErrorHandler
	s.RegisterGlobalMiddlewares()
	s.RegisterHealthRoutes()
	s.RegisterSearchRoutes()
	s.RegisterPublicMovieRoutes(s.Router.Group("/api"))
	return &s, nil
}

// Default builds a server from cfg with no backend wired, mostly for tests.
func Default(cfg *config.Config) *Server {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Server) RegisterGlobalMiddlewares() {
	s.Router.Use(middleware.Recover())
	s.Router.Use(middleware.Secure())
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Gzip())
	s.Router.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	s.Router.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))

	// CORS
	if len(s.AllowOrigins) > 0 {
		s.Router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.AllowOrigins,
		}))
	}
}

func (s *Server) Start() error {
	return s.Router.Start(s.Addr)
}

// Shutdown stops accepting requests and waits for running page actions until
// ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Router.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Wait blocks until every page action started so far has finished.
func (s *Server) Wait() {
	s.actions.Wait()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) newController(sid string, view search.View) *search.Controller {
	options := []search.Options{
		search.WithLogger(s.Logger.With("sid", sid)),
	}
	if s.Stash != nil {
		options = append(options, search.WithStash(s.Stash(sid)))
	}

	svc := s.MovieService
	if svc == nil {
		svc = unavailableService{}
	}
	return search.NewController(svc, view, options...)
}

// customHTTPErrorHandler maps application errors to appropriate HTTP status codes
func (s *Server) customHTTPErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(he.Code)
		}
	} else {
		switch errs.ErrorCode(err) {
		case errs.EINVALID:
			code = http.StatusBadRequest
			message = errs.ErrorMessage(err)
		case errs.ENOTFOUND:
			code = http.StatusNotFound
			message = errs.ErrorMessage(err)
		case errs.ECONFLICT:
			code = http.StatusConflict
			message = errs.ErrorMessage(err)
		case errs.EUNAUTHORIZED:
			code = http.StatusUnauthorized
			message = errs.ErrorMessage(err)
		case errs.ENOTIMPLEMENTED:
			code = http.StatusNotImplemented
			message = errs.ErrorMessage(err)
		}
	}

	if code >= http.StatusInternalServerError {
		s.Logger.Error(err.Error(), "request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		sentry.WithContext(c).Error(err)
	}

	// Don't write response if already committed
	if !c.Response().Committed {
		if err := writeError(c, code, message, err); err != nil {
			s.Logger.Error("cannot write error response", "error", err)
		}
	}
}

// unavailableService answers every call when no backend is configured.
type unavailableService struct{}

var errNoBackend = errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")

func (unavailableService) Search(context.Context, string) (movie.SearchResult, error) {
	return movie.SearchResult{}, errNoBackend
}

func (unavailableService) Recommendations(context.Context, movie.RecommendationQuery) (movie.RecommendationPage, error) {
	return movie.RecommendationPage{}, errNoBackend
}

func (unavailableService) AddFavorite(context.Context, movie.Favorite) (string, error) {
	return "", errNoBackend
}

func (unavailableService) RemoveFavorite(context.Context, movie.Favorite) (string, error) {
	return "", errNoBackend
}
