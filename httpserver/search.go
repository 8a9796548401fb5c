package httpserver

import (
	"context"
	"net/http"

	"cinescope/errs"
	"cinescope/pkg/sentry"
	"cinescope/search"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterSearchRoutes() {
	s.Router.GET("/", s.handlePage)
	s.Router.GET("/state", s.handleState)
	s.Router.POST("/search", s.handleSearch)
	s.Router.POST("/recommendations/more", s.handleLoadMore)
	s.Router.POST("/recommendations/view", s.handleViewDetails)
	s.Router.POST("/favorites/toggle", s.handleToggleFavorite)
	s.Router.POST("/notices/dismiss", s.handleDismissNotices)
	s.Router.POST("/stash", s.handleStash)
}

// handlePage is a page load: the search param or a stashed query starts a
// search, and the page renders its loading state while it runs.
func (s *Server) handlePage(c echo.Context) error {
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}

	pending, err := sess.Controller.BeginStart(c.Request().Context(), c.QueryParam("search"))
	state := sess.View.Snapshot()
	s.dispatch(c, "start", pending, err)

	return c.Render(http.StatusOK, "page", state)
}

func (s *Server) handleState(c echo.Context) error {
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}
	return writeSuccess(c, http.StatusOK, sess.View.Snapshot())
}

func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}

	pending, err := sess.Controller.BeginSearch(req.Query)
	s.dispatch(c, "search", pending, err)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLoadMore(c echo.Context) error {
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}

	pending, err := sess.Controller.BeginLoadMore()
	s.dispatch(c, "load more", pending, err)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleViewDetails(c echo.Context) error {
	var req ViewDetailsRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}

	pending, err := sess.Controller.BeginTriggerSearch(req.Title)
	s.dispatch(c, "view details", pending, err)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleToggleFavorite(c echo.Context) error {
	var req FavoriteRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}

	f := req.ToFavorite()
	err = sess.Controller.ToggleFavorite(c.Request().Context(), f.MovieID, f.MovieTitle)
	return s.done(c, "toggle favorite", err)
}

func (s *Server) handleDismissNotices(c echo.Context) error {
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}
	sess.View.DismissNotices()
	return c.Redirect(http.StatusSeeOther, "/")
}

// handleStash keeps a query for the next page load of this session.
func (s *Server) handleStash(c echo.Context) error {
	if s.Stash == nil {
		return errs.Errorf(errs.ENOTIMPLEMENTED, "search stash not configured")
	}

	var req StashRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess, err := s.Sessions.Resolve(c)
	if err != nil {
		return err
	}

	if err := s.Stash(sess.ID).Put(c.Request().Context(), req.Query); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errs.Errorf(errs.EINVALID, "invalid request body")
	}
	return c.Validate(req)
}

// done finishes a page action. Failures are already on the page, so the
// browser is sent back to it either way.
func (s *Server) done(c echo.Context, action string, err error) error {
	s.logOutcome(c, action, err)
	return c.Redirect(http.StatusSeeOther, "/")
}

// dispatch runs a prepared page action in the background so its loading state
// is on the page before the backend answers. The action outlives the request
// and is bounded by ActionTimeout instead.
func (s *Server) dispatch(c echo.Context, action string, pending search.Pending, err error) {
	if err != nil || pending == nil {
		s.logOutcome(c, action, err)
		return
	}

	ctx := context.WithoutCancel(c.Request().Context())
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	event := sentry.WithExtras(map[string]interface{}{"request_id": requestID})

	s.actions.Add(1)
	go func() {
		defer s.actions.Done()
		ctx, cancel := context.WithTimeout(ctx, s.ActionTimeout)
		defer cancel()
		s.report(event, requestID, action, pending(ctx))
	}()
}

func (s *Server) logOutcome(c echo.Context, action string, err error) {
	s.report(sentry.WithContext(c), c.Response().Header().Get(echo.HeaderXRequestID), action, err)
}

func (s *Server) report(event *sentry.Sentry, requestID, action string, err error) {
	if search.IsRejected(err) {
		return
	}
	s.Logger.Info(action+" failed",
		"error", err,
		"request_id", requestID,
	)
	if errs.ErrorCode(err) == errs.EINTERNAL {
		event.WithTags(map[string]string{"action": action}).Error(err)
	}
}
