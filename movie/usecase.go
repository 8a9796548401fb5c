package movie

import "context"

// Service is what front-ends use to talk to the movie backend.
type Service interface {
	Search(ctx context.Context, query string) (SearchResult, error)
	Recommendations(ctx context.Context, q RecommendationQuery) (RecommendationPage, error)
	AddFavorite(ctx context.Context, f Favorite) (string, error)
	RemoveFavorite(ctx context.Context, f Favorite) (string, error)
}

// Backend is the remote MovieService. Implemented by movieapi.Client.
type Backend interface {
	Search(ctx context.Context, query string) (SearchResult, error)
	Recommendations(ctx context.Context, q RecommendationQuery) (RecommendationPage, error)
	AddFavorite(ctx context.Context, f Favorite) (string, error)
	RemoveFavorite(ctx context.Context, f Favorite) (string, error)
}

type Usecase struct {
	b Backend
}

func NewUsecase(b Backend) *Usecase {
	return &Usecase{b: b}
}

func (uc *Usecase) Search(ctx context.Context, query string) (SearchResult, error) {
	query, err := NormalizeQuery(query)
	if err != nil {
		return SearchResult{}, err
	}
	return uc.b.Search(ctx, query)
}

func (uc *Usecase) Recommendations(ctx context.Context, q RecommendationQuery) (RecommendationPage, error) {
	if q.Page < 1 {
		return RecommendationPage{}, ErrInvalidPage
	}
	if q.Movie.Title == "" {
		return RecommendationPage{}, ErrMissingTitle
	}
	if q.ExcludeTitles == nil {
		q.ExcludeTitles = []string{}
	}
	return uc.b.Recommendations(ctx, q)
}

func (uc *Usecase) AddFavorite(ctx context.Context, f Favorite) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	return uc.b.AddFavorite(ctx, f)
}

func (uc *Usecase) RemoveFavorite(ctx context.Context, f Favorite) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	return uc.b.RemoveFavorite(ctx, f)
}
