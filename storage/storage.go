// Package storage provides interfaces and common errors for URL storage operations.
package storage

import (
	"context"
	"errors"

	"scratch-shortener/types"
)

// Common errors returned by storage operations.
var (
	ErrShortURLNotFound = errors.New("short URL not found")
)

// Storage interface defines the methods for URL storage operations.
type Storage interface {
	GetURLData(ctx context.Context, shortURL string) (types.URLData, error)
	InsertOrGet(ctx context.Context, urlData types.URLData) (types.URLData, error)
	Len() int
}
