package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"cinescope/errs"
	"cinescope/httpserver"
	"cinescope/movie"
	"cinescope/pkg/config"
	"cinescope/search"

	"github.com/stretchr/testify/require"
)

const testSessionSecret = "test-session-secret"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Session.Secret = testSessionSecret
	return cfg
}

type apiResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// fakeBackend is an in-memory movie service keyed by title.
type fakeBackend struct {
	mu        sync.Mutex
	movies    map[string]movie.SearchResult
	pages     map[int]movie.RecommendationPage
	favorites map[string]bool
	fail      error
	queries   []movie.RecommendationQuery
	searches  []string
	gate      chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		movies: map[string]movie.SearchResult{
			"Inception": {
				Movie: movie.Movie{
					Title:    "Inception",
					ImdbID:   "tt1375666",
					Year:     "2010",
					Director: "Christopher Nolan",
					Summary:  "A thief who steals corporate secrets <b>through dreams</b>.",
				},
				Recommendations: []movie.Recommendation{
					{Title: "Interstellar", Year: "2014", Director: "Christopher Nolan"},
					{Title: "Tenet", Year: "2020"},
					{Title: "Memento", Year: "2000"},
				},
				Page:    1,
				HasMore: true,
			},
			"Interstellar": {
				Movie: movie.Movie{Title: "Interstellar", ImdbID: "tt0816692"},
				Page:  1,
			},
			"Obscure Short": {
				Movie: movie.Movie{Title: "Obscure Short", ImdbID: movie.NotAvailable},
				Page:  1,
			},
		},
		pages: map[int]movie.RecommendationPage{
			2: {
				Recommendations: []movie.Recommendation{{Title: "Tenet"}, {Title: "Dunkirk"}, {Title: "The Prestige"}},
				Page:            2,
				HasMore:         false,
			},
		},
		favorites: make(map[string]bool),
	}
}

func notFound(query string) error {
	return errs.Errorf(errs.ENOTFOUND, "Movie %q not found. Try another title.", query)
}

func (b *fakeBackend) Search(ctx context.Context, query string) (movie.SearchResult, error) {
	b.wait(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searches = append(b.searches, query)
	if b.fail != nil {
		return movie.SearchResult{}, b.fail
	}
	r, ok := b.movies[query]
	if !ok {
		return movie.SearchResult{}, notFound(query)
	}
	r.Movie.IsFavorite = b.favorites[r.Movie.ImdbID]
	return r, nil
}

func (b *fakeBackend) Recommendations(ctx context.Context, q movie.RecommendationQuery) (movie.RecommendationPage, error) {
	b.wait(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)
	if b.fail != nil {
		return movie.RecommendationPage{}, b.fail
	}
	return b.pages[q.Page], nil
}

func (b *fakeBackend) AddFavorite(_ context.Context, f movie.Favorite) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return "", b.fail
	}
	if b.favorites[f.MovieID] {
		return "Movie already in favorites", nil
	}
	b.favorites[f.MovieID] = true
	return "Added to favorites", nil
}

func (b *fakeBackend) RemoveFavorite(_ context.Context, f movie.Favorite) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return "", b.fail
	}
	delete(b.favorites, f.MovieID)
	return "Removed from favorites", nil
}

func (b *fakeBackend) searchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.searches)
}

func (b *fakeBackend) setFail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

// hold blocks searches and recommendation pages until release is called.
func (b *fakeBackend) hold() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()
	return func() { close(gate) }
}

func (b *fakeBackend) wait(ctx context.Context) {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate == nil {
		return
	}
	select {
	case <-gate:
	case <-ctx.Done():
	}
}

// browser replays the session cookie like a real browser would, without
// following redirects. get and post wait for the page actions they start.
type browser struct {
	t       *testing.T
	server  *httpserver.Server
	cookies []*http.Cookie
}

func newBrowser(t *testing.T, server *httpserver.Server) *browser {
	return &browser{t: t, server: server}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	rec := b.send(req)
	b.server.Wait()
	return rec
}

// send issues req without waiting for the actions it starts.
func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.server.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(formRequest(path, form))
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (b *browser) state() httpserver.PageState {
	b.t.Helper()
	rec := b.send(httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Result httpserver.PageState `json:"result"`
	}
	require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Result
}

func titles(recs []movie.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

// memoryStashes keeps one pending query per session.
type memoryStashes struct {
	mu      sync.Mutex
	pending map[string]string
}

func newMemoryStashes() *memoryStashes {
	return &memoryStashes{pending: make(map[string]string)}
}

func (m *memoryStashes) forSession(sid string) search.Stash {
	return &memoryStash{parent: m, sid: sid}
}

type memoryStash struct {
	parent *memoryStashes
	sid    string
}

func (s *memoryStash) Take(context.Context) (string, bool, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	q, ok := s.parent.pending[s.sid]
	delete(s.parent.pending, s.sid)
	return q, ok, nil
}

func (s *memoryStash) Put(_ context.Context, query string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.pending[s.sid] = query
	return nil
}
