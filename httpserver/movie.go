package httpserver

import (
	"net/http"

	"cinescope/errs"
	"cinescope/movie"

	"github.com/labstack/echo/v4"
)

// RegisterPublicMovieRoutes exposes the movie service as stateless JSON for
// scripts. Nothing here touches a browser session.
func (s *Server) RegisterPublicMovieRoutes(g *echo.Group) {
	g.GET("/movies/search", s.handleSearchMovies)
	g.POST("/movies/recommendations", s.handleMovieRecommendations)
}

func (s *Server) handleSearchMovies(c echo.Context) error {
	if s.MovieService == nil {
		return errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")
	}

	query, err := movie.NormalizeQuery(c.QueryParam("q"))
	if err != nil {
		return err
	}

	result, err := s.MovieService.Search(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return writeSuccess(c, http.StatusOK, result)
}

func (s *Server) handleMovieRecommendations(c echo.Context) error {
	if s.MovieService == nil {
		return errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")
	}

	var req RecommendationsRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	page, err := s.MovieService.Recommendations(c.Request().Context(), req.ToQuery())
	if err != nil {
		return err
	}

	return writeSuccess(c, http.StatusOK, page)
}
