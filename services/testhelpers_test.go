package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tipflow/tip-backend/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*CheckoutResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) CreateSubAccount(ctx context.Context, req SubAccountRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []TipCompleted
}

func (r *recordingNotifier) NotifyTipCompleted(ctx context.Context, evt TipCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingNotifier) Events() []TipCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TipCompleted(nil), r.events...)
}
