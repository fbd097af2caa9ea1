package mocks

import (
	"context"

	"github.com/metinatakli/seat-booking-engine/internal/domain"
)

type MockMovieRepo struct {
	domain.MovieRepository
	GetByIdFunc func(ctx context.Context, id int) (*domain.Movie, error)
}

func (m *MockMovieRepo) GetById(ctx context.Context, id int) (*domain.Movie, error) {
	return m.GetByIdFunc(ctx, id)
}

// StaticMovies serves a fixed catalog and ErrRecordNotFound for anything else.
func StaticMovies(movies ...domain.Movie) *MockMovieRepo {
	return &MockMovieRepo{
		GetByIdFunc: func(ctx context.Context, id int) (*domain.Movie, error) {
			for _, m := range movies {
				if m.ID == id {
					return &m, nil
				}
			}
			return nil, domain.ErrRecordNotFound
		},
	}
}
