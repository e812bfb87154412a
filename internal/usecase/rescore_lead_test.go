package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

func TestRescoreLeadPersistsScore(t *testing.T) {
	leads := new(MockLeadRepository)
	uc := NewRescoreLeadUseCase(leads)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	responded := now.Add(-3 * 24 * time.Hour)
	leads.On("FindByID", mock.Anything, "lead-1").Return(&entity.Lead{
		ID:             "lead-1",
		Status:         entity.LeadStatusInterested,
		ResponseCount:  1,
		MessagesSent:   2,
		LastResponseAt: &responded,
		Email:          "maria@example.com",
		Phone:          "+5511999990000",
	}, nil)
	leads.On("UpdateScore", mock.Anything, "lead-1", 100, CategoryHot).Return(nil)

	result, err := uc.Execute(context.Background(), "lead-1", now)

	assert.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, CategoryHot, result.Category)
	leads.AssertExpectations(t)
}

func TestRescoreLeadNotFound(t *testing.T) {
	leads := new(MockLeadRepository)
	uc := NewRescoreLeadUseCase(leads)

	leads.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	_, err := uc.Execute(context.Background(), "missing", time.Now())

	var domainErr *DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "LEAD_NOT_FOUND", domainErr.Code)
	leads.AssertNotCalled(t, "UpdateScore", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRescoreLeadPersistFailure(t *testing.T) {
	leads := new(MockLeadRepository)
	uc := NewRescoreLeadUseCase(leads)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	leads.On("FindByID", mock.Anything, "lead-1").Return(&entity.Lead{
		ID:     "lead-1",
		Status: entity.LeadStatusNew,
	}, nil)
	leads.On("UpdateScore", mock.Anything, "lead-1", mock.Anything, mock.Anything).
		Return(errors.New("connection reset"))

	_, err := uc.Execute(context.Background(), "lead-1", now)

	assert.ErrorContains(t, err, "persisting score for lead lead-1")
}
