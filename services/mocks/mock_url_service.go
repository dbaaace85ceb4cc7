package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scratch-shortener/types"
)

// MockURLService is a mock URLService interface
type MockURLService struct {
	mock.Mock
}

func (m *MockURLService) Shorten(ctx context.Context, originalURL string) (types.URLData, error) {
	args := m.Called(ctx, originalURL)
	return args.Get(0).(types.URLData), args.Error(1)
}

func (m *MockURLService) Resolve(ctx context.Context, shortURL string) (types.URLData, error) {
	args := m.Called(ctx, shortURL)
	return args.Get(0).(types.URLData), args.Error(1)
}

func (m *MockURLService) Count() int {
	args := m.Called()
	return args.Int(0)
}
