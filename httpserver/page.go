package httpserver

import (
	"sync"
	"time"

	"cinescope/movie"
	"cinescope/search"
)

// NoticeState is a notice as rendered on the page.
type NoticeState struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// PageState is everything the page template needs.
type PageState struct {
	Query           string                 `json:"query"`
	Loading         bool                   `json:"loading"`
	Error           string                 `json:"error,omitempty"`
	Movie           *movie.Movie           `json:"movie,omitempty"`
	Favorite        bool                   `json:"favorite"`
	Recommendations []movie.Recommendation `json:"recommendations"`
	HasMore         bool                   `json:"hasMore"`
	LoadMoreBusy    bool                   `json:"loadMoreBusy"`
	Notices         []NoticeState          `json:"notices"`
}

// PageView keeps the rendered state of one browser session. Handlers read it
// through Snapshot while the controller writes it.
type PageView struct {
	mu    sync.Mutex
	state PageState
	now   func() time.Time
}

var _ search.View = (*PageView)(nil)

func NewPageView() *PageView {
	return &PageView{now: time.Now}
}

func (v *PageView) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Query = query
}

func (v *PageView) ShowLoading(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Query = query
	v.state.Loading = true
	v.clearResults()
}

func (v *PageView) ShowResults(r search.Results) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Loading = false
	v.clearResults()
	m := r.Movie
	v.state.Movie = &m
	v.state.Favorite = m.IsFavorite
	v.state.Recommendations = display(r.Recommendations)
	v.state.HasMore = r.HasMore
}

func (v *PageView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Loading = false
	v.clearResults()
	v.state.Error = message
}

func (v *PageView) SetLoadMoreBusy(busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.LoadMoreBusy = busy
}

func (v *PageView) AppendRecommendations(recs []movie.Recommendation, hasMore bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Recommendations = append(v.state.Recommendations, display(recs)...)
	v.state.HasMore = hasMore
	v.state.LoadMoreBusy = false
}

func (v *PageView) SetFavorite(movieID string, favorite bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Movie != nil && v.state.Movie.ImdbID == movieID {
		v.state.Favorite = favorite
	}
}

func (v *PageView) ShowNotice(n search.Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ns := NoticeState{Kind: n.Kind.String(), Message: n.Message}
	if n.TTL > 0 {
		ns.ExpiresAt = v.now().Add(n.TTL)
	}
	v.state.Notices = append(v.state.Notices, ns)
}

// DismissNotices removes every notice, including the ones without TTL.
func (v *PageView) DismissNotices() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Notices = nil
}

// Snapshot returns a copy of the state without expired notices.
func (v *PageView) Snapshot() PageState {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	live := v.state.Notices[:0]
	for _, n := range v.state.Notices {
		if n.ExpiresAt.IsZero() || now.Before(n.ExpiresAt) {
			live = append(live, n)
		}
	}
	v.state.Notices = live

	s := v.state
	if s.Movie != nil {
		m := *s.Movie
		s.Movie = &m
	}
	s.Recommendations = append([]movie.Recommendation(nil), v.state.Recommendations...)
	s.Notices = append([]NoticeState(nil), live...)
	return s
}

func (v *PageView) clearResults() {
	v.state.Error = ""
	v.state.Movie = nil
	v.state.Favorite = false
	v.state.Recommendations = nil
	v.state.HasMore = false
	v.state.LoadMoreBusy = false
}

func display(recs []movie.Recommendation) []movie.Recommendation {
	out := make([]movie.Recommendation, len(recs))
	for i, r := range recs {
		out[i] = r.Display()
	}
	return out
}
