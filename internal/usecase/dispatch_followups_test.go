package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/queue"
)

// --- Mocks ---

type MockFollowUpRepository struct {
	mock.Mock
}

func (m *MockFollowUpRepository) SelectDue(ctx context.Context, now time.Time, limit int) ([]*entity.FollowUp, error) {
	args := m.Called(ctx, now, limit)
	if due := args.Get(0); due != nil {
		return due.([]*entity.FollowUp), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFollowUpRepository) MarkCancelled(ctx context.Context, id, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) MarkOutcome(ctx context.Context, outcome entity.FollowUpOutcome) (bool, error) {
	args := m.Called(ctx, outcome)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) MarkRetry(ctx context.Context, id string, newRetryCount int, errMsg string) (bool, error) {
	args := m.Called(ctx, id, newRetryCount, errMsg)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) TryAcquireRunLock(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) ReleaseRunLock(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if lead := args.Get(0); lead != nil {
		return lead.(*entity.Lead), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateScore(ctx context.Context, id string, score int, category string) error {
	args := m.Called(ctx, id, score, category)
	return args.Error(0)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	args := m.Called(ctx, id)
	if profile := args.Get(0); profile != nil {
		return profile.(*entity.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDNCRepository struct {
	mock.Mock
}

func (m *MockDNCRepository) IsSuppressed(ctx context.Context, userID, contact string) (bool, error) {
	args := m.Called(ctx, userID, contact)
	return args.Bool(0), args.Error(1)
}

type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Insert(ctx context.Context, entry *entity.ActivityLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Insert(ctx context.Context, msg *entity.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockChannelSender struct {
	mock.Mock
}

func (m *MockChannelSender) Send(ctx context.Context, msg OutboundMessage) ChannelResult {
	args := m.Called(ctx, msg)
	return args.Get(0).(ChannelResult)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) PublishEngagement(ctx context.Context, payload queue.EngagementPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// --- Fixtures ---

type dispatchMocks struct {
	followUps *MockFollowUpRepository
	leads     *MockLeadRepository
	profiles  *MockProfileRepository
	dnc       *MockDNCRepository
	activity  *MockActivityLogRepository
	messages  *MockMessageRepository
	email     *MockChannelSender
	phone     *MockChannelSender
	producer  *MockProducer
}

func newDispatchUseCase() (*DispatchFollowUpsUseCase, *dispatchMocks) {
	m := &dispatchMocks{
		followUps: new(MockFollowUpRepository),
		leads:     new(MockLeadRepository),
		profiles:  new(MockProfileRepository),
		dnc:       new(MockDNCRepository),
		activity:  new(MockActivityLogRepository),
		messages:  new(MockMessageRepository),
		email:     new(MockChannelSender),
		phone:     new(MockChannelSender),
		producer:  new(MockProducer),
	}
	uc := NewDispatchFollowUpsUseCase(
		m.followUps, m.leads, m.profiles, m.dnc, m.activity, m.messages,
		m.email, m.phone, m.producer,
	)
	return uc, m
}

func pendingFollowUp() *entity.FollowUp {
	return &entity.FollowUp{
		ID:             "fu-1",
		UserID:         "user-1",
		LeadID:         "lead-1",
		MessageText:    "Hi, just checking in about your property.",
		ScheduledAt:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Channel:        entity.ChannelBoth,
		Status:         entity.FollowUpPending,
		FollowUpNumber: 1,
	}
}

func fullContactLead() *entity.Lead {
	return &entity.Lead{
		ID:              "lead-1",
		UserID:          "user-1",
		OwnerName:       "Maria Souza",
		Email:           "maria@example.com",
		Phone:           "+5511999990000",
		PropertyAddress: "123 Main St",
		Status:          entity.LeadStatusContacted,
	}
}

func agentProfile() *entity.Profile {
	return &entity.Profile{
		ID:       "user-1",
		FullName: "John Agent",
		Email:    "john@agency.com",
		Phone:    "+5511888880000",
	}
}

func lockAcquired(m *dispatchMocks) {
	m.followUps.On("TryAcquireRunLock", mock.Anything).Return(true, nil)
	m.followUps.On("ReleaseRunLock", mock.Anything).Return(nil)
}

// --- Tests ---

func TestDispatchSendsOnBothChannels(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(fullContactLead(), nil)
	m.profiles.On("FindByID", mock.Anything, "user-1").Return(agentProfile(), nil)
	m.dnc.On("IsSuppressed", mock.Anything, "user-1", "+5511999990000").Return(false, nil)
	m.email.On("Send", mock.Anything, mock.MatchedBy(func(msg OutboundMessage) bool {
		return msg.To == "maria@example.com" && msg.RecipientName == "Maria"
	})).Return(ChannelResult{OK: true, MessageID: "smtp-1"})
	m.phone.On("Send", mock.Anything, mock.MatchedBy(func(msg OutboundMessage) bool {
		return msg.To == "+5511999990000"
	})).Return(ChannelResult{OK: true, MessageID: "wamid-1"})
	m.followUps.On("MarkOutcome", mock.Anything, mock.MatchedBy(func(o entity.FollowUpOutcome) bool {
		return o.ID == "fu-1" && o.Status == entity.FollowUpSent &&
			o.EmailSentAt != nil && o.WhatsAppSentAt != nil && o.ErrorMessage == ""
	})).Return(true, nil)
	m.activity.On("Insert", mock.Anything, mock.MatchedBy(func(e *entity.ActivityLogEntry) bool {
		return e.Status == entity.ActivityStatusSuccess && e.Metadata.EmailSent && e.Metadata.WhatsAppSent
	})).Return(nil)
	m.messages.On("Insert", mock.Anything, mock.Anything).Return(nil).Twice()
	m.producer.On("PublishEngagement", mock.Anything, mock.MatchedBy(func(p queue.EngagementPayload) bool {
		return p.LeadID == "lead-1" && p.Status == "sent" && p.EmailSent && p.WhatsAppSent
	})).Return(nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Processed)
	assert.Equal(t, 1, results.Sent)
	assert.Equal(t, 0, results.Failed)
	assert.Equal(t, 0, results.Skipped)
	m.followUps.AssertExpectations(t)
	m.messages.AssertNumberOfCalls(t, "Insert", 2)
	m.producer.AssertExpectations(t)
}

func TestDispatchPartialWhenPhoneMissing(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()

	lead := fullContactLead()
	lead.Phone = ""

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	m.profiles.On("FindByID", mock.Anything, "user-1").Return(agentProfile(), nil)
	m.email.On("Send", mock.Anything, mock.Anything).Return(ChannelResult{OK: true, MessageID: "smtp-1"})
	m.followUps.On("MarkOutcome", mock.Anything, mock.MatchedBy(func(o entity.FollowUpOutcome) bool {
		return o.Status == entity.FollowUpPartial &&
			o.ErrorMessage == "WhatsApp: No phone number for lead" &&
			o.EmailSentAt != nil && o.WhatsAppSentAt == nil
	})).Return(true, nil)
	m.activity.On("Insert", mock.Anything, mock.Anything).Return(nil)
	m.messages.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
	m.producer.On("PublishEngagement", mock.Anything, mock.Anything).Return(nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Sent)
	// No phone: the suppression check is skipped, and a partial send
	// never consumes retry budget.
	m.dnc.AssertNotCalled(t, "IsSuppressed", mock.Anything, mock.Anything, mock.Anything)
	m.followUps.AssertNotCalled(t, "MarkRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.phone.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatchAllChannelsFailedConsumesRetry(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()
	fu.RetryCount = 1

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(fullContactLead(), nil)
	m.profiles.On("FindByID", mock.Anything, "user-1").Return(agentProfile(), nil)
	m.dnc.On("IsSuppressed", mock.Anything, "user-1", mock.Anything).Return(false, nil)
	m.email.On("Send", mock.Anything, mock.Anything).Return(ChannelResult{OK: false, Error: "SMTP connection refused"})
	m.phone.On("Send", mock.Anything, mock.Anything).Return(ChannelResult{OK: false, Error: "template not found"})
	m.followUps.On("MarkRetry", mock.Anything, "fu-1", 2,
		"Email: SMTP connection refused; WhatsApp: template not found").Return(true, nil)
	m.activity.On("Insert", mock.Anything, mock.MatchedBy(func(e *entity.ActivityLogEntry) bool {
		return e.Status == entity.ActivityStatusFailed && len(e.Metadata.Errors) == 2
	})).Return(nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Failed)
	assert.Equal(t, 0, results.Sent)
	m.followUps.AssertExpectations(t)
	// Nothing was delivered: no message rows, no engagement event.
	m.messages.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	m.producer.AssertNotCalled(t, "PublishEngagement", mock.Anything, mock.Anything)
}

func TestDispatchCancelsSuppressedLead(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(fullContactLead(), nil)
	m.profiles.On("FindByID", mock.Anything, "user-1").Return(agentProfile(), nil)
	m.dnc.On("IsSuppressed", mock.Anything, "user-1", "+5511999990000").Return(true, nil)
	m.followUps.On("MarkCancelled", mock.Anything, "fu-1", "Lead is on DNC list").Return(true, nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Skipped)
	assert.Equal(t, 0, results.Sent)
	assert.Equal(t, 0, results.Failed)
	m.followUps.AssertExpectations(t)
	// Cancellation is not a delivery failure: retry budget untouched and
	// no provider is contacted.
	m.followUps.AssertNotCalled(t, "MarkRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	m.phone.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatchMissingLeadIsRetryable(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(nil, nil)
	m.followUps.On("MarkRetry", mock.Anything, "fu-1", 1, "Lead not found").Return(true, nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Failed)
	m.followUps.AssertExpectations(t)
	m.email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatchSkipsRowClaimedByConcurrentRun(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()

	lead := fullContactLead()
	lead.Phone = ""

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	m.profiles.On("FindByID", mock.Anything, "user-1").Return(agentProfile(), nil)
	m.email.On("Send", mock.Anything, mock.Anything).Return(ChannelResult{OK: true, MessageID: "smtp-1"})
	m.followUps.On("MarkOutcome", mock.Anything, mock.Anything).Return(false, nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Skipped)
	assert.Equal(t, 0, results.Sent)
}

func TestDispatchReturnsErrRunInProgressWhenLockHeld(t *testing.T) {
	uc, m := newDispatchUseCase()

	m.followUps.On("TryAcquireRunLock", mock.Anything).Return(false, nil)

	results, err := uc.Execute(context.Background(), time.Now())

	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrRunInProgress)
	m.followUps.AssertNotCalled(t, "SelectDue", mock.Anything, mock.Anything, mock.Anything)
	m.followUps.AssertNotCalled(t, "ReleaseRunLock", mock.Anything)
}

func TestDispatchFailsWhenDueListUnavailable(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Now()

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return(nil, errors.New("connection reset"))

	results, err := uc.Execute(context.Background(), now)

	assert.Nil(t, results)
	assert.ErrorContains(t, err, "fetching due follow-ups")
	m.followUps.AssertCalled(t, "ReleaseRunLock", mock.Anything)
}

func TestDispatchEmptyBatch(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Now()

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{}, nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 0, results.Processed)
	assert.Empty(t, results.Errors)
}

func TestDispatchHonorsConfiguredBatchSize(t *testing.T) {
	uc, m := newDispatchUseCase()
	uc.BatchSize = 3
	now := time.Now()

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, 3).Return([]*entity.FollowUp{}, nil)

	_, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	m.followUps.AssertExpectations(t)
}

func TestDispatchEmailOnlyChannel(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()
	fu.Channel = entity.ChannelEmail

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(fullContactLead(), nil)
	m.profiles.On("FindByID", mock.Anything, "user-1").Return(agentProfile(), nil)
	m.dnc.On("IsSuppressed", mock.Anything, "user-1", mock.Anything).Return(false, nil)
	m.email.On("Send", mock.Anything, mock.Anything).Return(ChannelResult{OK: true, MessageID: "smtp-1"})
	m.followUps.On("MarkOutcome", mock.Anything, mock.MatchedBy(func(o entity.FollowUpOutcome) bool {
		return o.Status == entity.FollowUpSent && o.WhatsAppSentAt == nil
	})).Return(true, nil)
	m.activity.On("Insert", mock.Anything, mock.Anything).Return(nil)
	m.messages.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
	m.producer.On("PublishEngagement", mock.Anything, mock.Anything).Return(nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Sent)
	m.phone.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatchSenderPanicBecomesChannelError(t *testing.T) {
	uc, m := newDispatchUseCase()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fu := pendingFollowUp()
	fu.Channel = entity.ChannelWhatsApp

	lockAcquired(m)
	m.followUps.On("SelectDue", mock.Anything, now, DefaultBatchSize).Return([]*entity.FollowUp{fu}, nil)
	m.leads.On("FindByID", mock.Anything, "lead-1").Return(fullContactLead(), nil)
	m.profiles.On("FindByID", mock.Anything, "user-1").Return(agentProfile(), nil)
	m.dnc.On("IsSuppressed", mock.Anything, "user-1", mock.Anything).Return(false, nil)
	m.phone.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		panic("nil provider client")
	}).Return(ChannelResult{})
	m.followUps.On("MarkRetry", mock.Anything, "fu-1", 1, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(true, nil)
	m.activity.On("Insert", mock.Anything, mock.Anything).Return(nil)

	results, err := uc.Execute(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, results.Failed)
}
