package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/services/shop"
)

type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) AdminStats(ctx context.Context) (*shop.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Stats), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHandler_ServeHTTP(t *testing.T) {
	t.Run("stats returned", func(t *testing.T) {
		provider := new(MockStatsProvider)
		provider.On("AdminStats", mock.Anything).
			Return(&shop.Stats{Users: 10, Orders: 25, Revenue: 1250000}, nil).Once()

		handler := New(newNoopLogger(), provider)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"users":10`)
		assert.Contains(t, rec.Body.String(), `"orders":25`)
		assert.Contains(t, rec.Body.String(), `"revenue":1250000`)
		provider.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		provider := new(MockStatsProvider)
		provider.On("AdminStats", mock.Anything).Return(nil, errors.New("db down")).Once()

		handler := New(newNoopLogger(), provider)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"Error"`)
		provider.AssertExpectations(t)
	})
}
