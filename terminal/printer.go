package terminal

import (
	"fmt"
	"io"
	"sync"

	"cinescope/movie"
	"cinescope/search"
)

// Printer is a line-oriented search.View for scripts and non-TTY output.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	cards int
	movie movie.Movie
}

var _ search.View = (*Printer)(nil)

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) SetQuery(string) {}

func (p *Printer) ShowLoading(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards = 0
	p.movie = movie.Movie{}
	fmt.Fprintf(p.w, "Searching for %q...\n", Sanitize(query))
}

func (p *Printer) ShowResults(r search.Results) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.movie = r.Movie
	fmt.Fprintf(p.w, "\n%s\n", Sanitize(r.Movie.Title))
	for _, f := range movieFields(r.Movie) {
		fmt.Fprintf(p.w, "  %-10s %s\n", f.label+":", f.value)
	}
	if r.Movie.HasID() {
		fmt.Fprintf(p.w, "  %-10s %s\n", "Favorite:", yesNo(r.Movie.IsFavorite))
	}
	if summary := Sanitize(r.Movie.Summary); summary != "" {
		fmt.Fprintf(p.w, "\n  %s\n", summary)
	}

	fmt.Fprintln(p.w, "\nRecommendations:")
	if len(r.Recommendations) == 0 {
		fmt.Fprintln(p.w, "  none")
	}
	p.printCards(r.Recommendations, r.HasMore)
}

func (p *Printer) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "Error: %s\n", Sanitize(message))
}

func (p *Printer) SetLoadMoreBusy(busy bool) {
	if !busy {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "Loading more recommendations...")
}

func (p *Printer) AppendRecommendations(recs []movie.Recommendation, hasMore bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printCards(recs, hasMore)
}

func (p *Printer) SetFavorite(movieID string, favorite bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.movie.ImdbID != movieID {
		return
	}
	fmt.Fprintf(p.w, "Favorite: %s\n", yesNo(favorite))
}

func (p *Printer) ShowNotice(n search.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%s] %s\n", n.Kind, Sanitize(n.Message))
}

func (p *Printer) printCards(recs []movie.Recommendation, hasMore bool) {
	for _, r := range recs {
		p.cards++
		fmt.Fprintf(p.w, "  %s\n", cardLine(p.cards, r.Display()))
	}
	if hasMore {
		fmt.Fprintln(p.w, "  (more recommendations available)")
	} else if p.cards > 0 {
		fmt.Fprintln(p.w, "  (no more recommendations)")
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
