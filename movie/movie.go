package movie

import (
	"strings"

	"cinescope/errs"
)

// NotAvailable is the backend's placeholder for missing fields.
const NotAvailable = "N/A"

const PosterPlaceholder = "https://via.placeholder.com/300x450/667eea/ffffff?text=No+Poster"

var (
	ErrInvalidQuery    = errs.Errorf(errs.EINVALID, "invalid search query")
	ErrMissingID       = errs.Errorf(errs.EINVALID, "movie has no identifier")
	ErrMissingTitle    = errs.Errorf(errs.EINVALID, "movie has no title")
	ErrInvalidPage     = errs.Errorf(errs.EINVALID, "recommendation page must be positive")
	ErrFavoriteFailure = errs.Errorf(errs.EINTERNAL, "Failed to update favorites")
)

type Movie struct {
	Title      string `json:"title"`
	ImdbID     string `json:"imdb_id"`
	Rating     string `json:"rating"`
	Year       string `json:"year"`
	Runtime    string `json:"runtime"`
	Language   string `json:"language"`
	Genre      string `json:"genre"`
	BoxOffice  string `json:"box_office"`
	Director   string `json:"director"`
	Actors     string `json:"actors"`
	Summary    string `json:"summary"`
	Poster     string `json:"poster"`
	IsFavorite bool   `json:"is_favorite"`
}

// HasID reports whether favorite actions are possible for m.
func (m Movie) HasID() bool {
	return Available(m.ImdbID)
}

func (m Movie) HasBoxOffice() bool {
	return Available(m.BoxOffice)
}

func (m Movie) PosterURL() string {
	return posterOrPlaceholder(m.Poster)
}

// Recommendation is the card-sized subset of Movie. Title identifies it within a search.
type Recommendation struct {
	Title    string `json:"title"`
	Year     string `json:"year"`
	Genre    string `json:"genre"`
	Director string `json:"director"`
	Rating   string `json:"rating"`
	Poster   string `json:"poster"`
	ImdbID   string `json:"imdb_id,omitempty"`
}

func (r Recommendation) HasDirector() bool {
	return Available(r.Director)
}

func (r Recommendation) PosterURL() string {
	return posterOrPlaceholder(r.Poster)
}

// Display returns r with the card fallbacks applied to empty fields.
func (r Recommendation) Display() Recommendation {
	if r.Title == "" {
		r.Title = "Unknown"
	}
	r.Year = orNotAvailable(r.Year)
	r.Genre = orNotAvailable(r.Genre)
	r.Rating = orNotAvailable(r.Rating)
	r.Poster = r.PosterURL()
	return r
}

type SearchResult struct {
	Movie           Movie            `json:"movie"`
	Recommendations []Recommendation `json:"recommendations"`
	Page            int              `json:"recommendation_page"`
	HasMore         bool             `json:"has_more_recommendations"`
}

type RecommendationQuery struct {
	Movie         Movie    `json:"movie_data"`
	Page          int      `json:"page"`
	ExcludeTitles []string `json:"exclude_titles"`
}

type RecommendationPage struct {
	Recommendations []Recommendation `json:"recommendations"`
	Page            int              `json:"recommendation_page"`
	HasMore         bool             `json:"has_more_recommendations"`
}

type Favorite struct {
	MovieID    string `json:"movie_id"`
	MovieTitle string `json:"movie_title"`
}

func (f Favorite) Validate() error {
	if !Available(f.MovieID) {
		return ErrMissingID
	}
	if strings.TrimSpace(f.MovieTitle) == "" {
		return ErrMissingTitle
	}
	return nil
}

// Available reports whether v carries a real value.
func Available(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotAvailable
}

// NormalizeQuery trims q and rejects blank queries.
func NormalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrInvalidQuery
	}
	return q, nil
}

func posterOrPlaceholder(p string) string {
	if !Available(p) {
		return PosterPlaceholder
	}
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "none", "null":
		return PosterPlaceholder
	}
	return p
}

func orNotAvailable(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotAvailable
	}
	return v
}
