package services

import (
	"context"
	"errors"

	"scratch-shortener/storage"
	"scratch-shortener/types"
	"scratch-shortener/urlgen"
)

func handleStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrShortURLNotFound):
		return ErrShortURLNotFound
	default:
		return err
	}
}

var (
	ErrShortURLNotFound = errors.New("short URL not found")
	ErrEmptyURL         = errors.New("url must not be empty")
)

type URLService interface {
	Shorten(ctx context.Context, originalURL string) (types.URLData, error)
	Resolve(ctx context.Context, shortURL string) (types.URLData, error)
	Count() int
}

type urlService struct {
	store storage.Storage
}

func NewURLService(store storage.Storage) URLService {
	return &urlService{store: store}
}

// Shorten derives the code for originalURL and claims it in the store.
// When the code is already held by another URL the existing entry is returned.
func (s *urlService) Shorten(ctx context.Context, originalURL string) (types.URLData, error) {
	if originalURL == "" {
		return types.URLData{}, ErrEmptyURL
	}

	urlData, err := s.store.InsertOrGet(ctx, types.URLData{
		ShortURL:    urlgen.HashString(originalURL),
		OriginalURL: originalURL,
	})
	if err != nil {
		return types.URLData{}, handleStorageError(err)
	}
	return urlData, nil
}

func (s *urlService) Resolve(ctx context.Context, shortURL string) (types.URLData, error) {
	// Codes outside the generated alphabet or length cannot be stored.
	if !urlgen.IsValid(shortURL) {
		return types.URLData{}, ErrShortURLNotFound
	}

	urlData, err := s.store.GetURLData(ctx, shortURL)
	if err != nil {
		return types.URLData{}, handleStorageError(err)
	}
	return urlData, nil
}

func (s *urlService) Count() int {
	return s.store.Len()
}
