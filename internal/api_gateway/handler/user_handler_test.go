package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/digital-wallet-ledger/internal/domain/money"
	"github.com/digital-wallet-ledger/internal/domain/user"
)

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func TestUserHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockUsers := new(MockUserReader)
		handler := NewUserHandler(testLogger(), mockUsers)

		userID := uuid.New()
		balance, err := money.Parse("250.75")
		assert.NoError(t, err)
		mockUsers.On("GetByID", mock.Anything, userID).Return(&user.User{
			ID:        userID,
			Name:      "Alice",
			Email:     "alice@example.com",
			Balance:   balance,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}, nil).Once()

		r := authenticated(userID, false, http.MethodGet, "/users/me", handler.Me)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data, _ := json.Marshal(resp.Data)
		var got UserResponse
		assert.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, userID.String(), got.ID)
		assert.Equal(t, "250.75", got.Balance)
		mockUsers.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockUsers := new(MockUserReader)
		handler := NewUserHandler(testLogger(), mockUsers)

		userID := uuid.New()
		mockUsers.On("GetByID", mock.Anything, userID).
			Return(nil, user.ErrUserNotFound{UserID: userID}).Once()

		r := authenticated(userID, false, http.MethodGet, "/users/me", handler.Me)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("RepositoryFailure", func(t *testing.T) {
		mockUsers := new(MockUserReader)
		handler := NewUserHandler(testLogger(), mockUsers)

		userID := uuid.New()
		mockUsers.On("GetByID", mock.Anything, userID).
			Return(nil, errors.New("database unavailable")).Once()

		r := authenticated(userID, false, http.MethodGet, "/users/me", handler.Me)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
