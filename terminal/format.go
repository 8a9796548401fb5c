package terminal

import (
	"fmt"
	"strings"

	"cinescope/movie"
)

type field struct {
	label string
	value string
}

// movieFields lists the detail lines of m, already sanitized. Box office is
// left out when the backend has no figure.
func movieFields(m movie.Movie) []field {
	fields := []field{
		{"Year", m.Year},
		{"Rating", m.Rating},
		{"Runtime", m.Runtime},
		{"Genre", m.Genre},
		{"Language", m.Language},
		{"Director", m.Director},
		{"Cast", m.Actors},
	}
	if m.HasBoxOffice() {
		fields = append(fields, field{"Box office", m.BoxOffice})
	}
	fields = append(fields, field{"Poster", m.PosterURL()})

	out := fields[:0]
	for _, f := range fields {
		v := strings.TrimSpace(Sanitize(f.value))
		if v == "" {
			v = movie.NotAvailable
		}
		out = append(out, field{f.label, v})
	}
	return out
}

// cardLine renders the nth recommendation (1-based) on one line.
func cardLine(n int, r movie.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s (%s)", n, Sanitize(r.Title), Sanitize(r.Year))
	fmt.Fprintf(&b, " · %s · rating %s", Sanitize(r.Genre), Sanitize(r.Rating))
	if r.HasDirector() {
		fmt.Fprintf(&b, " · dir. %s", Sanitize(r.Director))
	}
	return b.String()
}
