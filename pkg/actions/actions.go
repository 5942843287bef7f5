// Package actions executes the side-effecting steps of the warranty
// workflow: queue routing, payment links, decline logging, and customer
// notifications. Each action returns a receipt, and the mutating ones
// honor idempotency keys so replayed plans do not double-fire.
package actions

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// QueueReceipt confirms a case was routed to a service queue.
type QueueReceipt struct {
	CaseID                string `json:"case_id"`
	Queue                 string `json:"queue"`
	Priority              string `json:"priority,omitempty"`
	EstimatedResponseTime string `json:"estimated_response_time,omitempty"`
	PositionInQueue       int    `json:"position_in_queue,omitempty"`
	Duplicate             bool   `json:"duplicate,omitempty"`
	Message               string `json:"message,omitempty"`
}

// PaymentLink is a generated payment checkout link.
type PaymentLink struct {
	PaymentID      string  `json:"payment_id"`
	PaymentURL     string  `json:"payment_url"`
	Amount         float64 `json:"amount,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	ExpiresInHours int     `json:"expires_in_hours,omitempty"`
	Description    string  `json:"description,omitempty"`
	Duplicate      bool    `json:"duplicate,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// DeclineLog is the receipt for a recorded customer decline.
type DeclineLog struct {
	LogID     string `json:"log_id"`
	Reason    string `json:"reason,omitempty"`
	LoggedAt  string `json:"logged_at,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message"`
}

// Notification is the receipt for a sent customer notification.
type Notification struct {
	NotificationID string         `json:"notification_id"`
	Channel        string         `json:"channel"`
	Status         string         `json:"status"`
	MessagePreview string         `json:"message_preview"`
	Recipient      map[string]any `json:"recipient,omitempty"`
}

type queueEntry struct {
	caseID         string
	queue          string
	idempotencyKey string
}

type linkEntry struct {
	paymentID      string
	paymentURL     string
	idempotencyKey string
}

type declineEntry struct {
	logID          string
	idempotencyKey string
}

var notificationTemplates = map[string]string{
	"warranty_queued":      "Your warranty claim has been received. A specialist will contact you within {estimated_response_time}. Case ID: {case_id}",
	"service_scheduled":    "Your service appointment has been scheduled. A technician will arrive on {scheduled_date}.",
	"payment_received":     "Thank you! Your payment of ${amount} has been received. Your service will be scheduled shortly.",
	"decline_acknowledged": "We understand your decision. If you change your mind, please contact us anytime.",
}

const fallbackTemplate = "Thank you for contacting us. We will be in touch soon."

// Service executes workflow actions against in-memory ledgers. An
// optional DeclineStore mirrors decline logs to durable storage.
type Service struct {
	mu            sync.Mutex
	queued        []queueEntry
	links         []linkEntry
	declines      []declineEntry
	notifications int

	declineStore DeclineStore
	now          func() time.Time
}

// NewService creates an action Service with in-memory ledgers.
func NewService() *Service {
	return &Service{now: time.Now}
}

// WithDeclineStore mirrors decline logs to the given durable store.
func (s *Service) WithDeclineStore(store DeclineStore) *Service {
	s.declineStore = store
	return s
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func shortHex(n int) string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:])[:n])
}

// RouteToQueue places a case on the named service queue. A repeated
// idempotency key returns the original receipt with Duplicate set.
func (s *Service) RouteToQueue(ctx context.Context, queue string, caseContext map[string]any, priority, idempotencyKey string) (*QueueReceipt, error) {
	if priority == "" {
		priority = "normal"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		for _, entry := range s.queued {
			if entry.idempotencyKey == idempotencyKey {
				return &QueueReceipt{
					CaseID:    entry.caseID,
					Queue:     entry.queue,
					Duplicate: true,
					Message:   "Case already queued (duplicate prevented)",
				}, nil
			}
		}
	}

	caseID := fmt.Sprintf("CASE-%s-%s", s.now().Format("20060102"), shortHex(8))
	s.queued = append(s.queued, queueEntry{caseID: caseID, queue: queue, idempotencyKey: idempotencyKey})

	position := 0
	for _, entry := range s.queued {
		if entry.queue == queue {
			position++
		}
	}

	responseTime := "24-48 hours"
	if priority != "normal" {
		responseTime = "4-8 hours"
	}

	log.Info().Str("queue", queue).Str("case_id", caseID).Str("priority", priority).Msg("case routed to queue")

	return &QueueReceipt{
		CaseID:                caseID,
		Queue:                 queue,
		Priority:              priority,
		EstimatedResponseTime: responseTime,
		PositionInQueue:       position,
	}, nil
}

// GeneratePayPalLink creates a sandbox checkout link for the given
// amount. A repeated idempotency key returns the original link.
func (s *Service) GeneratePayPalLink(ctx context.Context, amount float64, metadata map[string]any, currency, idempotencyKey string) (*PaymentLink, error) {
	if currency == "" {
		currency = "USD"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		for _, entry := range s.links {
			if entry.idempotencyKey == idempotencyKey {
				return &PaymentLink{
					PaymentID:  entry.paymentID,
					PaymentURL: entry.paymentURL,
					Duplicate:  true,
					Message:    "Payment link already generated (duplicate prevented)",
				}, nil
			}
		}
	}

	paymentID := "PAY-" + shortHex(12)
	paymentURL := "https://www.sandbox.paypal.com/checkoutnow?token=" + paymentID
	s.links = append(s.links, linkEntry{paymentID: paymentID, paymentURL: paymentURL, idempotencyKey: idempotencyKey})

	description := "Service charge payment"
	if d, ok := metadata["description"].(string); ok && d != "" {
		description = d
	}

	log.Info().Str("payment_id", paymentID).Float64("amount", amount).Msg("payment link generated")

	return &PaymentLink{
		PaymentID:      paymentID,
		PaymentURL:     paymentURL,
		Amount:         amount,
		Currency:       currency,
		ExpiresInHours: 72,
		Description:    description,
	}, nil
}

// LogDeclineReason records why the customer declined service. A repeated
// idempotency key returns the original log receipt.
func (s *Service) LogDeclineReason(ctx context.Context, reason string, caseContext map[string]any, idempotencyKey string) (*DeclineLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		for _, entry := range s.declines {
			if entry.idempotencyKey == idempotencyKey {
				return &DeclineLog{
					LogID:     entry.logID,
					Duplicate: true,
					Message:   "Decline already logged (duplicate prevented)",
				}, nil
			}
		}
	}

	now := s.now()
	logID := fmt.Sprintf("LOG-%s-%s", now.Format("20060102"), shortHex(6))
	s.declines = append(s.declines, declineEntry{logID: logID, idempotencyKey: idempotencyKey})

	if s.declineStore != nil {
		caseID, _ := caseContext["case_id"].(string)
		if err := s.declineStore.Save(ctx, DeclineRecord{
			LogID:    logID,
			CaseID:   caseID,
			Reason:   reason,
			LoggedAt: now.UTC(),
		}); err != nil {
			// The in-memory receipt stands even when the mirror write fails.
			log.Warn().Err(err).Str("log_id", logID).Msg("decline store write failed")
		}
	}

	log.Info().Str("log_id", logID).Msg("decline reason logged")

	return &DeclineLog{
		LogID:    logID,
		Reason:   reason,
		LoggedAt: now.Format(time.RFC3339),
		Message:  "Decline reason logged successfully",
	}, nil
}

// NotifyNextSteps renders the named template against the context values
// and records the send. Unknown templates fall back to a generic message.
// The optional recipient is echoed on the receipt; actual delivery is
// outside this service.
func (s *Service) NotifyNextSteps(ctx context.Context, channel, templateID string, templateContext, recipient map[string]any) (*Notification, error) {
	template, ok := notificationTemplates[templateID]
	if !ok {
		template = fallbackTemplate
	}

	message := template
	for key, value := range templateContext {
		message = strings.ReplaceAll(message, "{"+key+"}", fmt.Sprint(value))
	}

	s.mu.Lock()
	s.notifications++
	s.mu.Unlock()

	preview := message
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}

	notificationID := "NOTIF-" + shortHex(8)
	log.Info().Str("notification_id", notificationID).Str("channel", channel).Str("template", templateID).Msg("notification sent")

	return &Notification{
		NotificationID: notificationID,
		Channel:        channel,
		Status:         "sent",
		MessagePreview: preview,
		Recipient:      recipient,
	}, nil
}
