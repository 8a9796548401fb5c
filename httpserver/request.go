package httpserver

import (
	"strings"

	"cinescope/movie"
)

type SearchRequest struct {
	Query string `form:"q" json:"q" validate:"required,notblank,max=200"`
}

type FavoriteRequest struct {
	MovieID    string `form:"movie_id" json:"movie_id" validate:"required,notblank,max=32"`
	MovieTitle string `form:"movie_title" json:"movie_title" validate:"required,notblank,max=200"`
}

func (r FavoriteRequest) ToFavorite() movie.Favorite {
	return movie.Favorite{
		MovieID:    strings.TrimSpace(r.MovieID),
		MovieTitle: strings.TrimSpace(r.MovieTitle),
	}
}

// ViewDetailsRequest is the "view details" action of a recommendation card.
type ViewDetailsRequest struct {
	Title string `form:"title" json:"title" validate:"required,notblank,max=200"`
}

type StashRequest struct {
	Query string `form:"q" json:"q" validate:"required,notblank,max=200"`
}

// RecommendationsRequest mirrors the backend's recommendation query.
type RecommendationsRequest struct {
	Movie         movie.Movie `json:"movie_data"`
	Page          int         `json:"page" validate:"required,min=2"`
	ExcludeTitles []string    `json:"exclude_titles" validate:"max=500,dive,max=200"`
}

func (r RecommendationsRequest) ToQuery() movie.RecommendationQuery {
	return movie.RecommendationQuery{
		Movie:         r.Movie,
		Page:          r.Page,
		ExcludeTitles: r.ExcludeTitles,
	}
}
