package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Execute(ctx context.Context, now time.Time) (*usecase.DispatchResults, error) {
	args := m.Called(ctx, now)
	if results := args.Get(0); results != nil {
		return results.(*usecase.DispatchResults), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCronHandlerRejectsMissingSecret(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := NewCronHandler(dispatcher, "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/send-followups", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	dispatcher.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestCronHandlerRejectsWrongSecret(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := NewCronHandler(dispatcher, "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/send-followups", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	dispatcher.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestCronHandlerReturnsResults(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := NewCronHandler(dispatcher, "topsecret")

	dispatcher.On("Execute", mock.Anything, mock.Anything).Return(&usecase.DispatchResults{
		Processed: 3,
		Sent:      2,
		Failed:    1,
		Errors:    []string{"Follow-up fu-9: SMTP connection refused"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/send-followups", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body cronResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, 3, body.Results.Processed)
	assert.Equal(t, 2, body.Results.Sent)
	assert.Equal(t, 1, body.Results.Failed)
}

func TestCronHandlerEmptyBatchMessage(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := NewCronHandler(dispatcher, "")

	dispatcher.On("Execute", mock.Anything, mock.Anything).Return(&usecase.DispatchResults{Errors: []string{}}, nil)

	// No secret configured: the endpoint is open (local development).
	req := httptest.NewRequest(http.MethodGet, "/api/cron/send-followups", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body cronResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "No pending follow-ups", body.Message)
}

func TestCronHandlerSkipsWhenRunInProgress(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := NewCronHandler(dispatcher, "topsecret")

	dispatcher.On("Execute", mock.Anything, mock.Anything).Return(nil, usecase.ErrRunInProgress)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/send-followups", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	// An overlapping tick is expected behavior, not an error.
	assert.Equal(t, http.StatusOK, rec.Code)

	var body cronResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, "Previous run still in progress, skipping", body.Message)
}

func TestCronHandlerFailsWhenDispatcherErrors(t *testing.T) {
	dispatcher := new(MockDispatcher)
	handler := NewCronHandler(dispatcher, "topsecret")

	dispatcher.On("Execute", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	req := httptest.NewRequest(http.MethodPost, "/api/cron/send-followups", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body cronResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.OK)
	assert.Equal(t, "Failed to fetch follow-ups", body.Error)
}
