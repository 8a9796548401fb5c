package terminal

import (
	"context"
	"sync"

	"cinescope/errs"
	"cinescope/movie"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeService answers from memory; only Inception has recommendation pages.
type fakeService struct {
	mu        sync.Mutex
	favorites map[string]bool
	fail      error
}

func newFakeService() *fakeService {
	return &fakeService{favorites: make(map[string]bool)}
}

func (s *fakeService) Search(_ context.Context, query string) (movie.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return movie.SearchResult{}, s.fail
	}
	switch query {
	case "Inception":
		return movie.SearchResult{
			Movie: movie.Movie{
				Title:     "Inception",
				ImdbID:    "tt1375666",
				Year:      "2010",
				Director:  "Christopher Nolan",
				BoxOffice: movie.NotAvailable,
				Summary:   "Dreams \x1b[2Jwithin dreams.",
			},
			Recommendations: []movie.Recommendation{
				{Title: "Interstellar", Year: "2014", Director: "Christopher Nolan"},
				{Title: "Tenet", Year: "2020", Director: movie.NotAvailable},
			},
			Page:    1,
			HasMore: true,
		}, nil
	case "Interstellar":
		return movie.SearchResult{Movie: movie.Movie{Title: "Interstellar", ImdbID: "tt0816692"}, Page: 1}, nil
	}
	return movie.SearchResult{}, errs.Errorf(errs.ENOTFOUND, "Movie %q not found. Try another title.", query)
}

func (s *fakeService) Recommendations(_ context.Context, q movie.RecommendationQuery) (movie.RecommendationPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return movie.RecommendationPage{}, s.fail
	}
	return movie.RecommendationPage{
		Recommendations: []movie.Recommendation{{Title: "Tenet"}, {Title: "Memento", Year: "2000"}},
		Page:            q.Page,
	}, nil
}

func (s *fakeService) AddFavorite(_ context.Context, f movie.Favorite) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.favorites[f.MovieID] = true
	return "Added to favorites", nil
}

func (s *fakeService) RemoveFavorite(_ context.Context, f movie.Favorite) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	delete(s.favorites, f.MovieID)
	return "Removed from favorites", nil
}

func (s *fakeService) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// recorder collects what a ProgramView sends.
type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) drain() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}
