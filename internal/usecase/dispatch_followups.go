package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/queue"
)

const (
	DefaultBatchSize   = 10
	DefaultSendTimeout = 10 * time.Second
)

type DispatchFollowUpsUseCase struct {
	FollowUps entity.FollowUpRepositoryInterface
	Leads     entity.LeadRepositoryInterface
	Profiles  entity.ProfileRepositoryInterface
	DNC       entity.DNCRepositoryInterface
	Activity  entity.ActivityLogRepositoryInterface
	Messages  entity.MessageRepositoryInterface

	EmailSender ChannelSender
	PhoneSender ChannelSender // WhatsApp by default, Twilio SMS when configured

	Producer QueueProducerInterface
	CRM      CRMNotifier // optional

	BatchSize   int
	SendTimeout time.Duration
}

func NewDispatchFollowUpsUseCase(
	followUps entity.FollowUpRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	profiles entity.ProfileRepositoryInterface,
	dnc entity.DNCRepositoryInterface,
	activity entity.ActivityLogRepositoryInterface,
	messages entity.MessageRepositoryInterface,
	emailSender ChannelSender,
	phoneSender ChannelSender,
	producer QueueProducerInterface,
) *DispatchFollowUpsUseCase {
	return &DispatchFollowUpsUseCase{
		FollowUps:   followUps,
		Leads:       leads,
		Profiles:    profiles,
		DNC:         dnc,
		Activity:    activity,
		Messages:    messages,
		EmailSender: emailSender,
		PhoneSender: phoneSender,
		Producer:    producer,
		BatchSize:   DefaultBatchSize,
		SendTimeout: DefaultSendTimeout,
	}
}

// Execute processes one batch of due follow-ups. Individual failures
// are absorbed into the results; the only hard error is being unable
// to fetch the due list at all. At most one run is active at a time:
// a tick that cannot take the lock returns ErrRunInProgress.
func (uc *DispatchFollowUpsUseCase) Execute(ctx context.Context, now time.Time) (*DispatchResults, error) {
	acquired, err := uc.FollowUps.TryAcquireRunLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := uc.FollowUps.ReleaseRunLock(context.Background()); err != nil {
			log.Printf("⚠️ [Dispatch] Failed to release run lock: %v", err)
		}
	}()

	batch := uc.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	due, err := uc.FollowUps.SelectDue(ctx, now, batch)
	if err != nil {
		return nil, fmt.Errorf("fetching due follow-ups: %w", err)
	}

	results := &DispatchResults{Errors: []string{}}
	if len(due) == 0 {
		return results, nil
	}

	log.Printf("📬 [Dispatch] Found %d follow-ups to process", len(due))

	for _, fu := range due {
		results.Processed++
		uc.processOne(ctx, now, fu, results)
	}

	log.Printf("📭 [Dispatch] Batch done: processed=%d sent=%d failed=%d skipped=%d",
		results.Processed, results.Sent, results.Failed, results.Skipped)

	return results, nil
}

func (uc *DispatchFollowUpsUseCase) processOne(ctx context.Context, now time.Time, fu *entity.FollowUp, results *DispatchResults) {
	lead, err := uc.Leads.FindByID(ctx, fu.LeadID)
	if err != nil {
		uc.failRetry(ctx, fu, "Lead not found", results)
		results.Errors = append(results.Errors, fmt.Sprintf("Follow-up %s: %v", fu.ID, err))
		return
	}
	if lead == nil {
		uc.failRetry(ctx, fu, "Lead not found", results)
		return
	}

	profile, err := uc.Profiles.FindByID(ctx, fu.UserID)
	if err != nil {
		uc.failRetry(ctx, fu, "Profile not found", results)
		results.Errors = append(results.Errors, fmt.Sprintf("Follow-up %s: %v", fu.ID, err))
		return
	}
	if profile == nil {
		uc.failRetry(ctx, fu, "Profile not found", results)
		return
	}

	// Suppression check on the lead's phone. Cancellation consumes no
	// retry budget.
	if lead.HasPhone() {
		suppressed, err := uc.DNC.IsSuppressed(ctx, fu.UserID, lead.Phone)
		if err != nil {
			uc.failRetry(ctx, fu, fmt.Sprintf("DNC check failed: %v", err), results)
			results.Errors = append(results.Errors, fmt.Sprintf("Follow-up %s: %v", fu.ID, err))
			return
		}
		if suppressed {
			log.Printf("🚫 [Dispatch] Lead %s is on DNC list, cancelling follow-up %s", lead.ID, fu.ID)
			if _, err := uc.FollowUps.MarkCancelled(ctx, fu.ID, "Lead is on DNC list"); err != nil {
				log.Printf("⚠️ [Dispatch] Failed to cancel follow-up %s: %v", fu.ID, err)
			}
			results.Skipped++
			return
		}
	}

	channel := fu.Channel
	if channel == "" {
		channel = entity.ChannelBoth
	}

	msg := OutboundMessage{
		Body:            fu.MessageText,
		RecipientName:   firstName(lead.OwnerName),
		PropertyAddress: propertyAddress(lead),
		AgentName:       profile.AgentName(),
		AgentPhone:      profile.Phone,
		AgentEmail:      profile.Email,
		FollowUpNumber:  fu.FollowUpNumber,
	}

	var (
		emailSent, phoneSent   bool
		emailMsgID, phoneMsgID string
		emailAt, phoneAt       *time.Time
		errs                   []string
	)

	// Each channel attempt is independent: a WhatsApp failure never
	// blocks the email attempt, and vice versa.
	if channel == entity.ChannelBoth || channel == entity.ChannelEmail {
		if lead.HasEmail() {
			m := msg
			m.To = lead.Email
			res := uc.sendWithTimeout(ctx, uc.EmailSender, m)
			if res.OK {
				emailSent = true
				emailMsgID = res.MessageID
				t := now
				emailAt = &t
			} else {
				errs = append(errs, "Email: "+res.Error)
			}
		} else {
			errs = append(errs, "Email: No email address for lead")
		}
	}

	if channel == entity.ChannelBoth || channel == entity.ChannelWhatsApp {
		if lead.HasPhone() {
			m := msg
			m.To = lead.Phone
			res := uc.sendWithTimeout(ctx, uc.PhoneSender, m)
			if res.OK {
				phoneSent = true
				phoneMsgID = res.MessageID
				t := now
				phoneAt = &t
			} else {
				errs = append(errs, "WhatsApp: "+res.Error)
			}
		} else {
			errs = append(errs, "WhatsApp: No phone number for lead")
		}
	}

	errMsg := strings.Join(errs, "; ")

	var status entity.FollowUpStatus
	if emailSent || phoneSent {
		if len(errs) == 0 {
			status = entity.FollowUpSent
		} else {
			status = entity.FollowUpPartial
		}

		sentAt := now
		applied, err := uc.FollowUps.MarkOutcome(ctx, entity.FollowUpOutcome{
			ID:             fu.ID,
			Status:         status,
			EmailSentAt:    emailAt,
			WhatsAppSentAt: phoneAt,
			SentAt:         &sentAt,
			ErrorMessage:   errMsg,
			RetryCount:     fu.RetryCount,
		})
		if err != nil {
			log.Printf("⚠️ [Dispatch] Failed to persist outcome for follow-up %s: %v", fu.ID, err)
			results.Errors = append(results.Errors, fmt.Sprintf("Follow-up %s: %v", fu.ID, err))
		}
		if err == nil && !applied {
			// Another run claimed the row between select and update.
			log.Printf("⚠️ [Dispatch] Follow-up %s was claimed by a concurrent run", fu.ID)
			results.Skipped++
			return
		}
		results.Sent++
	} else {
		// All channels failed: consume one retry. The follow-up reverts
		// to pending at the same scheduled_at (no backoff) until the
		// retry cap makes the failure terminal.
		status = entity.FollowUpFailed
		if _, err := uc.FollowUps.MarkRetry(ctx, fu.ID, fu.RetryCount+1, errMsg); err != nil {
			log.Printf("⚠️ [Dispatch] Failed to record retry for follow-up %s: %v", fu.ID, err)
			results.Errors = append(results.Errors, fmt.Sprintf("Follow-up %s: %v", fu.ID, err))
		}
		results.Failed++
	}

	uc.logAttempt(ctx, fu, lead, status, emailSent, phoneSent, errs)

	if emailSent {
		uc.insertMessage(ctx, entity.NewOutboundMessage(fu.UserID, lead.ID, entity.ChannelEmail, lead.Email, fu.MessageText, emailMsgID))
	}
	if phoneSent {
		uc.insertMessage(ctx, entity.NewOutboundMessage(fu.UserID, lead.ID, entity.ChannelWhatsApp, lead.Phone, fu.MessageText, phoneMsgID))
	}

	if emailSent || phoneSent {
		uc.publishEngagement(ctx, fu, lead, status, emailSent, phoneSent)
		uc.pushCRMNote(ctx, fu, lead, status)
	}
}

// sendWithTimeout bounds every provider call and converts panics into
// channel-level errors so a bad adapter can never abort the batch.
func (uc *DispatchFollowUpsUseCase) sendWithTimeout(ctx context.Context, sender ChannelSender, msg OutboundMessage) (result ChannelResult) {
	timeout := uc.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = ChannelResult{OK: false, Error: fmt.Sprintf("sender panic: %v", r)}
		}
	}()

	if sender == nil {
		return ChannelResult{OK: false, Error: "channel not configured"}
	}
	return sender.Send(ctx, msg)
}

// failRetry handles the data-problem path (missing join target, lookup
// error): retryable, recorded, retried later up to the cap.
func (uc *DispatchFollowUpsUseCase) failRetry(ctx context.Context, fu *entity.FollowUp, reason string, results *DispatchResults) {
	log.Printf("❌ [Dispatch] Follow-up %s: %s", fu.ID, reason)
	if _, err := uc.FollowUps.MarkRetry(ctx, fu.ID, fu.RetryCount+1, reason); err != nil {
		log.Printf("⚠️ [Dispatch] Failed to record retry for follow-up %s: %v", fu.ID, err)
	}
	results.Failed++
}

func (uc *DispatchFollowUpsUseCase) logAttempt(ctx context.Context, fu *entity.FollowUp, lead *entity.Lead, status entity.FollowUpStatus, emailSent, phoneSent bool, errs []string) {
	activityStatus := entity.ActivityStatusFailed
	if status == entity.FollowUpSent || status == entity.FollowUpPartial {
		activityStatus = entity.ActivityStatusSuccess
	}

	entry := entity.NewActivityLogEntry(
		fu.UserID,
		entity.EventFollowUpSent,
		fmt.Sprintf("Follow-up %s: %s", status, channelSummary(emailSent, phoneSent)),
		activityStatus,
		entity.ActivityMetadata{
			FollowUpID:   fu.ID,
			LeadID:       lead.ID,
			EmailSent:    emailSent,
			WhatsAppSent: phoneSent,
			Errors:       errs,
		},
	)

	if err := uc.Activity.Insert(ctx, entry); err != nil {
		log.Printf("⚠️ [Dispatch] Failed to write activity log for follow-up %s: %v", fu.ID, err)
	}
}

func (uc *DispatchFollowUpsUseCase) insertMessage(ctx context.Context, msg *entity.Message) {
	if err := uc.Messages.Insert(ctx, msg); err != nil {
		log.Printf("⚠️ [Dispatch] Failed to record outbound message for lead %s: %v", msg.LeadID, err)
	}
}

// publishEngagement hands the outcome to the scoring worker. A queue
// failure is logged and swallowed: the send already happened.
func (uc *DispatchFollowUpsUseCase) publishEngagement(ctx context.Context, fu *entity.FollowUp, lead *entity.Lead, status entity.FollowUpStatus, emailSent, phoneSent bool) {
	if uc.Producer == nil {
		return
	}
	payload := queue.EngagementPayload{
		UserID:       fu.UserID,
		LeadID:       lead.ID,
		FollowUpID:   fu.ID,
		Status:       string(status),
		EmailSent:    emailSent,
		WhatsAppSent: phoneSent,
		Origin:       "FOLLOWUP_DISPATCH",
	}
	if err := uc.Producer.PublishEngagement(ctx, payload); err != nil {
		log.Printf("⚠️ [Dispatch] Sent but failed to publish engagement event for lead %s: %v", lead.ID, err)
	}
}

func (uc *DispatchFollowUpsUseCase) pushCRMNote(ctx context.Context, fu *entity.FollowUp, lead *entity.Lead, status entity.FollowUpStatus) {
	if uc.CRM == nil || lead.CRMID == "" {
		return
	}
	subject := fmt.Sprintf("Follow-up #%d %s", fu.FollowUpNumber, status)
	if err := uc.CRM.CreateNote(ctx, lead.CRMID, subject, fu.MessageText); err != nil {
		log.Printf("⚠️ [Dispatch] CRM note failed for lead %s: %v", lead.ID, err)
	}
}

func channelSummary(emailSent, phoneSent bool) string {
	switch {
	case emailSent && phoneSent:
		return "Email + WhatsApp"
	case emailSent:
		return "Email"
	case phoneSent:
		return "WhatsApp"
	default:
		return "no channel"
	}
}

func firstName(fullName string) string {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return "there"
	}
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

func propertyAddress(lead *entity.Lead) string {
	if lead.PropertyAddress != "" {
		return lead.PropertyAddress
	}
	return "your property"
}
