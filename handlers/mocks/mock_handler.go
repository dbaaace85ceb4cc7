package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scratch-shortener/wire"
)

// MockHandler is a mock Handler interface
type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Handle(ctx context.Context, req *wire.Request) *wire.Response {
	args := m.Called(ctx, req)
	return args.Get(0).(*wire.Response)
}
