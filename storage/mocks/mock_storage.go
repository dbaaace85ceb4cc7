package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scratch-shortener/types"
)

// MockStorage is a mock Storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetURLData(ctx context.Context, shortURL string) (types.URLData, error) {
	args := m.Called(ctx, shortURL)
	return args.Get(0).(types.URLData), args.Error(1)
}

func (m *MockStorage) InsertOrGet(ctx context.Context, urlData types.URLData) (types.URLData, error) {
	args := m.Called(ctx, urlData)
	return args.Get(0).(types.URLData), args.Error(1)
}

func (m *MockStorage) Len() int {
	args := m.Called()
	return args.Int(0)
}
