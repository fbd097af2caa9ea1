package domain

import "context"

type Movie struct {
	ID          int
	Title       string
	Genre       string
	Language    string
	Description string
	TrailerUrl  string
}

type MovieRepository interface {
	GetById(ctx context.Context, id int) (*Movie, error)
}
