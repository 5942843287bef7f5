package actions

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
}

func TestRouteToQueue(t *testing.T) {
	svc := NewService().WithClock(fixedClock())

	receipt, err := svc.RouteToQueue(context.Background(), "WarrantySalt", map[string]any{"case_id": "CASE-1"}, "normal", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(receipt.CaseID, "CASE-20260831-"))
	assert.Equal(t, "WarrantySalt", receipt.Queue)
	assert.Equal(t, "24-48 hours", receipt.EstimatedResponseTime)
	assert.Equal(t, 1, receipt.PositionInQueue)
	assert.False(t, receipt.Duplicate)
}

func TestRouteToQueueHighPriority(t *testing.T) {
	svc := NewService()

	receipt, err := svc.RouteToQueue(context.Background(), "WarrantySalt", nil, "urgent", "")
	require.NoError(t, err)
	assert.Equal(t, "4-8 hours", receipt.EstimatedResponseTime)
}

func TestRouteToQueueIdempotent(t *testing.T) {
	svc := NewService()

	first, err := svc.RouteToQueue(context.Background(), "WarrantySalt", nil, "normal", "CASE-1:route_to_queue")
	require.NoError(t, err)

	second, err := svc.RouteToQueue(context.Background(), "WarrantySalt", nil, "normal", "CASE-1:route_to_queue")
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.CaseID, second.CaseID)
}

func TestGeneratePayPalLink(t *testing.T) {
	svc := NewService()

	link, err := svc.GeneratePayPalLink(context.Background(), 220.00, map[string]any{"case_id": "CASE-1"}, "", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link.PaymentID, "PAY-"))
	assert.Len(t, link.PaymentID, 16)
	assert.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token="+link.PaymentID, link.PaymentURL)
	assert.Equal(t, "USD", link.Currency)
	assert.Equal(t, 72, link.ExpiresInHours)
	assert.Equal(t, "Service charge payment", link.Description)
}

func TestGeneratePayPalLinkIdempotent(t *testing.T) {
	svc := NewService()

	first, err := svc.GeneratePayPalLink(context.Background(), 220.00, nil, "USD", "CASE-1:generate_paypal_link")
	require.NoError(t, err)

	second, err := svc.GeneratePayPalLink(context.Background(), 220.00, nil, "USD", "CASE-1:generate_paypal_link")
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, first.PaymentURL, second.PaymentURL)
}

func TestLogDeclineReason(t *testing.T) {
	svc := NewService().WithClock(fixedClock())

	declineLog, err := svc.LogDeclineReason(context.Background(), "too expensive right now", map[string]any{"case_id": "CASE-1"}, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(declineLog.LogID, "LOG-20260831-"))
	assert.Equal(t, "too expensive right now", declineLog.Reason)
	assert.Equal(t, "Decline reason logged successfully", declineLog.Message)
}

type recordingDeclineStore struct {
	mu    sync.Mutex
	saved []DeclineRecord
}

func (r *recordingDeclineStore) Save(ctx context.Context, rec DeclineRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, rec)
	return nil
}

func TestLogDeclineReasonMirrorsToStore(t *testing.T) {
	store := &recordingDeclineStore{}
	svc := NewService().WithDeclineStore(store)

	declineLog, err := svc.LogDeclineReason(context.Background(), "too expensive", map[string]any{"case_id": "CASE-9"}, "")
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, declineLog.LogID, store.saved[0].LogID)
	assert.Equal(t, "CASE-9", store.saved[0].CaseID)
	assert.Equal(t, "too expensive", store.saved[0].Reason)
}

func TestLogDeclineReasonIdempotent(t *testing.T) {
	store := &recordingDeclineStore{}
	svc := NewService().WithDeclineStore(store)

	first, err := svc.LogDeclineReason(context.Background(), "too expensive", nil, "CASE-1:log_decline_reason")
	require.NoError(t, err)

	second, err := svc.LogDeclineReason(context.Background(), "too expensive", nil, "CASE-1:log_decline_reason")
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.LogID, second.LogID)
	assert.Len(t, store.saved, 1, "duplicate must not reach the store")
}

func TestNotifyNextStepsTemplate(t *testing.T) {
	svc := NewService()

	recipient := map[string]any{"email": "customer@example.com"}
	n, err := svc.NotifyNextSteps(context.Background(), "chat", "warranty_queued", map[string]any{
		"estimated_response_time": "24-48 hours",
		"case_id":                 "CASE-20260831-ABCD1234",
	}, recipient)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(n.NotificationID, "NOTIF-"))
	assert.Equal(t, "sent", n.Status)
	assert.Contains(t, n.MessagePreview, "24-48 hours")
	assert.Equal(t, recipient, n.Recipient)
}

func TestNotifyNextStepsUnknownTemplate(t *testing.T) {
	svc := NewService()

	n, err := svc.NotifyNextSteps(context.Background(), "email", "nonexistent", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Thank you for contacting us. We will be in touch soon.", n.MessagePreview)
}

func TestCheckTerritoryServiceable(t *testing.T) {
	svc := NewService()

	res := svc.CheckTerritory(map[string]any{"zip": "77001", "state": "TX"})
	assert.True(t, res.Serviceable)
	assert.Equal(t, "Houston Metro Area", res.TerritoryName)
	assert.Empty(t, res.NearestServiceableZip)
}

func TestCheckTerritoryNotServiceable(t *testing.T) {
	svc := NewService()

	res := svc.CheckTerritory(map[string]any{"zip": "90210", "state": "CA"})
	assert.False(t, res.Serviceable)
	assert.Equal(t, "77001", res.NearestServiceableZip)
}

func TestCheckTerritoryZipNormalization(t *testing.T) {
	svc := NewService()

	assert.True(t, svc.CheckTerritory(map[string]any{"zip": " 77001 "}).Serviceable)
	assert.True(t, svc.CheckTerritory(map[string]any{"zip": "77001-1234"}).Serviceable)
	assert.False(t, svc.CheckTerritory(map[string]any{}).Serviceable)
}

func TestGetServiceDirectorySorted(t *testing.T) {
	svc := NewService()

	dir, err := svc.GetServiceDirectory("HEAT", map[string]any{"zip": "77001"}, 0, DirectoryFilters{})
	require.NoError(t, err)

	require.Equal(t, 3, dir.ProviderCount)
	assert.Equal(t, "HeatPro Services", dir.Providers[0].Name)
	for i := 1; i < len(dir.Providers); i++ {
		assert.GreaterOrEqual(t, dir.Providers[i].DistanceMiles, dir.Providers[i-1].DistanceMiles)
	}
}

func TestGetServiceDirectoryDistanceFilter(t *testing.T) {
	svc := NewService()

	dir, err := svc.GetServiceDirectory("SALT", map[string]any{"zip": "77001"}, 10, DirectoryFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, dir.ProviderCount)
}

func TestGetServiceDirectoryUnknownProductType(t *testing.T) {
	svc := NewService()

	_, err := svc.GetServiceDirectory("GAS", nil, 0, DirectoryFilters{})
	require.ErrorIs(t, err, ErrNoProviders)
}
