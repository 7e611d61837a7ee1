package storage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"webhook-ratelimiter/internal/models"
)

// MockBackend is a testify mock of Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	args := m.Called(ctx, key)
	rec, _ := args.Get(0).(*models.RateLimitRecord)
	return rec, args.Error(1)
}

func (m *MockBackend) Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration) error {
	args := m.Called(ctx, key, rec, ttl)
	return args.Error(0)
}

func (m *MockBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBackend) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, error) {
	args := m.Called(ctx, prefix, limit, cursor)
	keys, _ := args.Get(0).([]string)
	return keys, args.String(1), args.Error(2)
}

func (m *MockBackend) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}
