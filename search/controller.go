package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"cinescope/errs"
	"cinescope/movie"
)

const (
	searchFallback   = "Error searching for movie. Please try again."
	loadMoreFallback = "Unable to load more recommendations. Please try again."
	favoriteFallback = "An error occurred while updating favorites. Please try again."
)

var (
	ErrNoSession             = errs.Errorf(errs.EINVALID, "no active search")
	ErrNoMoreRecommendations = errs.Errorf(errs.EINVALID, "no more recommendations available")
	ErrLoadInFlight          = errs.Errorf(errs.ECONFLICT, "recommendations are already loading")
	ErrStale                 = errs.Errorf(errs.ECONFLICT, "response belongs to a superseded search")
)

// Stash is a one-shot handoff of a query to the next page load.
type Stash interface {
	// Take returns the stashed query and removes it.
	Take(ctx context.Context) (string, bool, error)
	Put(ctx context.Context, query string) error
}

type Options func(c *Controller)

func WithStash(s Stash) Options {
	return func(c *Controller) {
		c.stash = s
	}
}

func WithLogger(l *slog.Logger) Options {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller drives one search page: a search, its recommendation pages and
// the favorite toggle of the movies on it.
//
// Every search starts a new generation. Responses are applied only while their
// generation is still the current one, so a slow response from a superseded
// search is dropped instead of overwriting newer results.
type Controller struct {
	svc    movie.Service
	view   View
	stash  Stash
	logger *slog.Logger

	mu        sync.Mutex
	gen       uint64
	session   Session
	loading   bool
	favorites map[string]bool
}

func NewController(svc movie.Service, view View, options ...Options) *Controller {
	c := &Controller{
		svc:       svc,
		view:      view,
		logger:    slog.Default(),
		favorites: make(map[string]bool),
	}
	for _, fn := range options {
		fn(c)
	}
	return c
}

// Session returns a snapshot of the current session. It is inactive when no
// search has succeeded yet or the last one failed.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Favorite returns the button state of movieID.
func (c *Controller) Favorite(movieID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.favorites[movieID]
}

// Pending performs a prepared request and applies its response. It may run on
// a different goroutine than the Begin call that returned it.
type Pending func(ctx context.Context) error

func run(ctx context.Context, p Pending, err error) error {
	if err != nil || p == nil {
		return err
	}
	return p(ctx)
}

// Start runs the entry behavior: search for urlQuery, or else for the stashed
// query. The stash is consumed either way.
func (c *Controller) Start(ctx context.Context, urlQuery string) error {
	p, err := c.BeginStart(ctx, urlQuery)
	return run(ctx, p, err)
}

// BeginStart consumes the stash and prepares the entry search. It returns a nil
// Pending when there is nothing to search for.
func (c *Controller) BeginStart(ctx context.Context, urlQuery string) (Pending, error) {
	query := strings.TrimSpace(urlQuery)

	if c.stash != nil {
		stashed, ok, err := c.stash.Take(ctx)
		if err != nil {
			c.logger.Warn("cannot read search stash", "error", err)
		} else if ok && query == "" {
			query = strings.TrimSpace(stashed)
		}
	}

	if query == "" {
		return nil, nil
	}

	c.mu.Lock()
	c.view.SetQuery(query)
	c.mu.Unlock()

	return c.BeginSearch(query)
}

// TriggerSearch is the "view details" entry point of a recommendation card.
func (c *Controller) TriggerSearch(ctx context.Context, title string) error {
	p, err := c.BeginTriggerSearch(title)
	return run(ctx, p, err)
}

func (c *Controller) BeginTriggerSearch(title string) (Pending, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, movie.ErrInvalidQuery
	}

	c.mu.Lock()
	c.view.SetQuery(title)
	c.mu.Unlock()

	return c.BeginSearch(title)
}

func (c *Controller) Search(ctx context.Context, query string) error {
	p, err := c.BeginSearch(query)
	return run(ctx, p, err)
}

// BeginSearch starts a new generation and shows its loading state. The search
// itself happens when the returned Pending runs.
func (c *Controller) BeginSearch(query string) (Pending, error) {
	query, err := movie.NormalizeQuery(query)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.session = Session{}
	c.loading = false
	c.view.ShowLoading(query)
	c.mu.Unlock()

	return func(ctx context.Context) error {
		return c.finishSearch(ctx, gen, query)
	}, nil
}

func (c *Controller) finishSearch(ctx context.Context, gen uint64, query string) error {
	result, err := c.svc.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("dropping superseded search response", "query", query, "generation", gen)
		return ErrStale
	}

	if err != nil {
		c.logger.Info("search failed", "query", query, "error", err)
		c.view.ShowError(FriendlyMessage(err, searchFallback))
		return err
	}

	session, recs := NewSession(gen, result)
	c.session = session
	c.favorites = make(map[string]bool)
	if session.Movie.HasID() {
		c.favorites[session.Movie.ImdbID] = session.Movie.IsFavorite
	}

	c.view.ShowResults(Results{
		Movie:           session.Movie,
		Recommendations: recs,
		HasMore:         session.HasMore,
	})
	return nil
}

// LoadMoreRecommendations fetches the next recommendation page and appends the
// titles not shown yet. Only one load runs at a time.
func (c *Controller) LoadMoreRecommendations(ctx context.Context) error {
	p, err := c.BeginLoadMore()
	return run(ctx, p, err)
}

// BeginLoadMore checks the load-more guards and marks the trigger busy. The
// busy state lasts until the returned Pending has run.
func (c *Controller) BeginLoadMore() (Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.session.Active():
		return nil, ErrNoSession
	case !c.session.HasMore:
		return nil, ErrNoMoreRecommendations
	case c.loading:
		return nil, ErrLoadInFlight
	}
	c.loading = true
	current := c.session.clone()
	c.view.SetLoadMoreBusy(true)

	return func(ctx context.Context) error {
		return c.finishLoadMore(ctx, current)
	}, nil
}

func (c *Controller) finishLoadMore(ctx context.Context, current Session) error {
	page, err := c.svc.Recommendations(ctx, current.NextQuery())

	c.mu.Lock()
	defer c.mu.Unlock()

	if current.Generation != c.gen {
		c.logger.Debug("dropping superseded recommendation page", "generation", current.Generation)
		return ErrStale
	}
	c.loading = false

	if err != nil {
		c.logger.Info("load more recommendations failed", "page", current.Page+1, "error", err)
		c.view.SetLoadMoreBusy(false)
		c.view.ShowNotice(Notice{
			Kind:    NoticeWarning,
			Message: FriendlyMessage(err, loadMoreFallback),
		})
		return err
	}

	next, fresh := c.session.Merge(page)
	c.session = next
	c.view.AppendRecommendations(fresh, next.HasMore)
	return nil
}

// ToggleFavorite adds or removes movieID depending on its current button state.
// Movies without an identifier are ignored.
func (c *Controller) ToggleFavorite(ctx context.Context, movieID, movieTitle string) error {
	if !movie.Available(movieID) {
		return movie.ErrMissingID
	}

	c.mu.Lock()
	active := c.favorites[movieID]
	gen := c.gen
	c.mu.Unlock()

	f := movie.Favorite{MovieID: movieID, MovieTitle: movieTitle}
	var (
		msg string
		err error
	)
	if active {
		msg, err = c.svc.RemoveFavorite(ctx, f)
	} else {
		msg, err = c.svc.AddFavorite(ctx, f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.logger.Info("update favorites failed", "movie_id", movieID, "error", err)
		c.view.ShowNotice(Notice{
			Kind:    NoticeError,
			Message: FriendlyMessage(err, favoriteFallback),
			TTL:     ErrorNoticeTTL,
		})
		return err
	}

	if gen == c.gen {
		c.favorites[movieID] = !active
		c.view.SetFavorite(movieID, !active)
	}
	c.view.ShowNotice(Notice{
		Kind:    NoticeSuccess,
		Message: msg,
		TTL:     SuccessNoticeTTL,
	})
	return nil
}

// FriendlyMessage picks what the user sees for err: the server's own message for
// application errors, fallback for everything else.
func FriendlyMessage(err error, fallback string) string {
	if errs.IsApplication(err) {
		if msg := errs.ErrorMessage(err); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsRejected reports whether err is a guard rejection or a dropped stale
// response rather than a failed request.
func IsRejected(err error) bool {
	return err == nil ||
		errors.Is(err, ErrStale) ||
		errors.Is(err, ErrLoadInFlight) ||
		errors.Is(err, ErrNoMoreRecommendations) ||
		errors.Is(err, ErrNoSession) ||
		errors.Is(err, movie.ErrInvalidQuery) ||
		errors.Is(err, movie.ErrMissingID)
}
