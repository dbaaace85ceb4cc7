package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"scratch-shortener/types"
)

// defaultCapacity is the initial map size hint used when none is given.
const defaultCapacity = 1000

// InMemoryStorage implements the Storage interface using an in-memory map.
type InMemoryStorage struct {
	urls   map[string]types.URLData // Map to store short URL to URLData mappings
	mu     sync.RWMutex             // Guards urls; lookups share it, InsertOrGet takes it exclusively
	logger *zap.Logger
}

// NewInMemoryStorage creates and returns a new InMemoryStorage instance.
// sizeHint only pre-allocates the map; the storage grows without bound.
func NewInMemoryStorage(sizeHint int, logger *zap.Logger) *InMemoryStorage {
	if sizeHint <= 0 {
		sizeHint = defaultCapacity
	}
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed to initialize zap logger: " + err.Error())
		}
	}
	return &InMemoryStorage{
		urls:   make(map[string]types.URLData, sizeHint),
		logger: logger,
	}
}

// InsertOrGet stores urlData under urlData.ShortURL unless that code is already taken.
// The returned entry is the one occupying the code afterwards: the new one on insert,
// the existing one otherwise. An existing entry is never overwritten, even when its
// OriginalURL differs.
func (s *InMemoryStorage) InsertOrGet(ctx context.Context, urlData types.URLData) (types.URLData, error) {
	select {
	case <-ctx.Done():
		s.logger.Warn("InsertOrGet operation cancelled", zap.String("shortURL", urlData.ShortURL))
		return types.URLData{}, ctx.Err()
	default:
		s.mu.Lock()
		defer s.mu.Unlock()

		if existing, exists := s.urls[urlData.ShortURL]; exists {
			if existing.OriginalURL != urlData.OriginalURL {
				s.logger.Info("Short URL already taken by a different URL",
					zap.String("shortURL", urlData.ShortURL),
					zap.String("storedURL", existing.OriginalURL),
					zap.String("rejectedURL", urlData.OriginalURL))
			}
			return existing, nil
		}

		urlData.CreatedAt = time.Now().UTC()
		s.urls[urlData.ShortURL] = urlData
		s.logger.Info("Short URL created successfully",
			zap.String("shortURL", urlData.ShortURL),
			zap.String("originalURL", urlData.OriginalURL),
			zap.Time("createdAt", urlData.CreatedAt))
		return urlData, nil
	}
}

// GetURLData retrieves the URLData for a given short URL.
func (s *InMemoryStorage) GetURLData(ctx context.Context, shortURL string) (types.URLData, error) {
	select {
	case <-ctx.Done():
		s.logger.Warn("Read operation cancelled", zap.String("shortURL", shortURL))
		return types.URLData{}, ctx.Err()
	default:
		s.mu.RLock()
		defer s.mu.RUnlock()

		if urlData, exists := s.urls[shortURL]; exists {
			s.logger.Debug("URL data retrieved successfully",
				zap.String("shortURL", shortURL),
				zap.String("originalURL", urlData.OriginalURL))
			return urlData, nil
		}
		return types.URLData{}, ErrShortURLNotFound
	}
}

// Len returns the number of stored short URLs.
func (s *InMemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls)
}
