package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
	toolx "github.com/marquev/warranty-agent/agent/tool"
	"github.com/marquev/warranty-agent/pkg/actions"
	"github.com/marquev/warranty-agent/pkg/warranty"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	db, err := warranty.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return testNow }
	warrantySvc := warranty.NewService(warranty.NewSQLiteProductRepo(db)).WithClock(clock)
	actionSvc := actions.NewService().WithClock(clock)
	gateway := toolx.NewGateway(warrantySvc, actionSvc)

	cases, err := casefile.NewStore(casefile.StoreConfig{})
	if err != nil {
		t.Fatal(err)
	}

	orch, err := New(cases, gateway)
	if err != nil {
		t.Fatal(err)
	}
	return orch.WithClock(clock)
}

func heatRequest(caseID, message string) contract.Request {
	return contract.Request{
		CaseID:                caseID,
		UserMessage:           message,
		LoggedIn:              true,
		HasRegisteredProducts: true,
		ProductID:             "HEAT-001",
		Location:              casefile.Location{Zip: "77001", State: "TX"},
	}
}

func TestProcessRequestEmptyMessage(t *testing.T) {
	orch := newTestOrchestrator(t)

	resp := orch.ProcessRequest(context.Background(), contract.Request{UserMessage: "   "})

	if resp.Status != contract.StatusError {
		t.Fatalf("expected error status, got %s", resp.Status)
	}
}

func TestProcessRequestLoginGate(t *testing.T) {
	orch := newTestOrchestrator(t)

	resp := orch.ProcessRequest(context.Background(), contract.Request{UserMessage: "help me"})

	if resp.Status != contract.StatusOK {
		t.Fatalf("expected ok, got %s", resp.Status)
	}
	if resp.Action != "PROMPT_LOGIN" {
		t.Fatalf("expected PROMPT_LOGIN, got %s", resp.Action)
	}
	if resp.CaseID == "" {
		t.Fatal("response must carry a case id")
	}
}

// HEAT-001 at the fixed clock has active parts and tank coverage but
// lapsed labor, and 77001 is inside the service territory, so four turns
// walk the full path to a payment link.
func TestGoldenPathHeatProceedServiceablePayPal(t *testing.T) {
	orch := newTestOrchestrator(t)
	ctx := context.Background()

	// Turn 1: warranty lookup.
	resp := orch.ProcessRequest(ctx, heatRequest("", "My heat pump water heater isn't working properly"))
	if resp.Status != contract.StatusOK {
		t.Fatalf("turn 1 failed: %s", resp.Response)
	}
	caseID := resp.CaseID

	// Turn 2: charges calculated, proceed question asked.
	resp = orch.ProcessRequest(ctx, heatRequest(caseID, "what happens next?"))
	if resp.Action != "ASK_USER" {
		t.Fatalf("turn 2 expected ASK_USER, got %q", resp.Action)
	}
	if !strings.Contains(resp.Response, "proceed") {
		t.Fatalf("turn 2 must ask to proceed: %q", resp.Response)
	}

	// Turn 3: customer agrees, territory gets checked.
	resp = orch.ProcessRequest(ctx, heatRequest(caseID, "Yes, I want to proceed with the service"))
	if resp.Status != contract.StatusOK {
		t.Fatalf("turn 3 failed: %s", resp.Response)
	}

	// Turn 4: payment link.
	resp = orch.ProcessRequest(ctx, heatRequest(caseID, "go ahead"))
	if resp.Status != contract.StatusOK {
		t.Fatalf("turn 4 failed: %s", resp.Response)
	}
	if !strings.Contains(resp.Response, "payment") {
		t.Fatalf("expected payment instructions, got %q", resp.Response)
	}
	url, ok := resp.ActionData["payment_url"].(string)
	if !ok || !strings.HasPrefix(url, "https://www.sandbox.paypal.com/checkoutnow?token=PAY-") {
		t.Fatalf("expected sandbox payment url, got %v", resp.ActionData)
	}
}

func TestGoldenPathHeatDeclineLogged(t *testing.T) {
	orch := newTestOrchestrator(t)
	ctx := context.Background()

	resp := orch.ProcessRequest(ctx, heatRequest("", "My heat pump is making a loud noise"))
	caseID := resp.CaseID

	resp = orch.ProcessRequest(ctx, heatRequest(caseID, "tell me the cost"))
	if resp.Action != "ASK_USER" {
		t.Fatalf("expected proceed question, got %q", resp.Action)
	}

	resp = orch.ProcessRequest(ctx, heatRequest(caseID, "No, that's too expensive. I'll wait until next month."))
	if resp.Status != contract.StatusOK {
		t.Fatalf("decline turn failed: %s", resp.Response)
	}
	lower := strings.ToLower(resp.Response)
	if !strings.Contains(lower, "noted") && !strings.Contains(lower, "understand") {
		t.Fatalf("decline must be acknowledged: %q", resp.Response)
	}

	c, ok := orch.cases.Get(caseID)
	if !ok {
		t.Fatal("case missing from store")
	}
	if c.CustomerDecision != casefile.DecisionDecline {
		t.Fatalf("expected DECLINE recorded, got %s", c.CustomerDecision)
	}
}

func TestGoldenPathSaltQueued(t *testing.T) {
	orch := newTestOrchestrator(t)

	resp := orch.ProcessRequest(context.Background(), contract.Request{
		UserMessage:           "My water softener stopped regenerating",
		LoggedIn:              true,
		HasRegisteredProducts: true,
		ProductID:             "SALT-001",
		Location:              casefile.Location{Zip: "77002", State: "TX"},
	})
	caseID := resp.CaseID

	resp = orch.ProcessRequest(context.Background(), contract.Request{
		CaseID:                caseID,
		UserMessage:           "please fix it",
		LoggedIn:              true,
		HasRegisteredProducts: true,
		ProductID:             "SALT-001",
		Location:              casefile.Location{Zip: "77002", State: "TX"},
	})

	if resp.Status != contract.StatusOK {
		t.Fatalf("queue turn failed: %s", resp.Response)
	}
	if !strings.Contains(resp.Response, "claim has been submitted") {
		t.Fatalf("expected queue confirmation, got %q", resp.Response)
	}
	// The queue assigns a fresh case id that the response must carry.
	if !strings.HasPrefix(resp.CaseID, "CASE-20260831-") {
		t.Fatalf("unexpected case id: %s", resp.CaseID)
	}
}

func TestHeatUnserviceableDirectory(t *testing.T) {
	orch := newTestOrchestrator(t)
	ctx := context.Background()

	// 90210 is outside the serviceable zip list, so after the customer
	// agrees the case routes to the provider directory instead of payment.
	resp := orch.ProcessRequest(ctx, contract.Request{
		UserMessage:           "heater is broken",
		LoggedIn:              true,
		HasRegisteredProducts: true,
		ProductID:             "HEAT-003",
		Location:              casefile.Location{Zip: "90210", State: "CA"},
	})
	caseID := resp.CaseID

	resp = orch.ProcessRequest(ctx, contract.Request{
		CaseID: caseID, UserMessage: "ok", LoggedIn: true, HasRegisteredProducts: true,
		ProductID: "HEAT-003", Location: casefile.Location{Zip: "90210", State: "CA"},
	})
	if resp.Action != "ASK_USER" {
		t.Fatalf("expected proceed question, got %q", resp.Action)
	}

	resp = orch.ProcessRequest(ctx, contract.Request{
		CaseID: caseID, UserMessage: "yes please", LoggedIn: true, HasRegisteredProducts: true,
		ProductID: "HEAT-003", Location: casefile.Location{Zip: "90210", State: "CA"},
	})
	if resp.Status != contract.StatusOK {
		t.Fatalf("territory turn failed: %s", resp.Response)
	}

	resp = orch.ProcessRequest(ctx, contract.Request{
		CaseID: caseID, UserMessage: "go ahead", LoggedIn: true, HasRegisteredProducts: true,
		ProductID: "HEAT-003", Location: casefile.Location{Zip: "90210", State: "CA"},
	})
	if !strings.Contains(resp.Response, "outside our direct service territory") {
		t.Fatalf("expected directory response, got %q", resp.Response)
	}
	if _, ok := resp.ActionData["providers"]; !ok {
		t.Fatalf("expected providers in action data, got %v", resp.ActionData)
	}
	if _, ok := resp.ActionData["payment_url"]; ok {
		t.Fatal("unserviceable path must not produce a payment link")
	}
}

func TestContinuationWithoutFlagsKeepsGatesOpen(t *testing.T) {
	orch := newTestOrchestrator(t)
	ctx := context.Background()

	resp := orch.ProcessRequest(ctx, heatRequest("", "My heat pump is rattling"))
	if resp.Action == "PROMPT_LOGIN" {
		t.Fatalf("first turn unexpectedly gated: %q", resp.Response)
	}
	caseID := resp.CaseID

	// A bare continuation carries only the case id and message.
	resp = orch.ProcessRequest(ctx, contract.Request{
		CaseID:      caseID,
		UserMessage: "any update?",
	})

	if resp.Action == "PROMPT_LOGIN" || resp.Action == "PROMPT_PRODUCT_REGISTRATION" {
		t.Fatalf("continuation regressed to gate %q", resp.Action)
	}

	c, ok := orch.cases.Get(caseID)
	if !ok {
		t.Fatal("case missing from store")
	}
	if !c.LoggedIn || !c.HasRegisteredProducts {
		t.Fatalf("gate booleans were unset: logged_in=%v registered=%v", c.LoggedIn, c.HasRegisteredProducts)
	}
}

func TestCasePersistsAcrossTurns(t *testing.T) {
	orch := newTestOrchestrator(t)
	ctx := context.Background()

	resp := orch.ProcessRequest(ctx, heatRequest("", "first message"))
	caseID := resp.CaseID

	orch.ProcessRequest(ctx, heatRequest(caseID, "second message"))

	c, ok := orch.cases.Get(caseID)
	if !ok {
		t.Fatal("case missing from store")
	}
	if len(c.UserMessages) != 2 {
		t.Fatalf("expected 2 user messages, got %d", len(c.UserMessages))
	}
}

type fakeAssistant struct {
	reply string
	err   error
	calls int
}

func (f *fakeAssistant) Respond(ctx context.Context, caseJSON, userMessage string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestAssistantAnswersFirst(t *testing.T) {
	orch := newTestOrchestrator(t)
	fa := &fakeAssistant{reply: "Happy to help with your heater."}
	orch.WithAssistant(fa)

	resp := orch.ProcessRequest(context.Background(), heatRequest("", "hello"))

	if fa.calls != 1 {
		t.Fatalf("expected 1 assistant call, got %d", fa.calls)
	}
	if resp.Response != "Happy to help with your heater." {
		t.Fatalf("expected assistant reply, got %q", resp.Response)
	}
}

func TestAssistantFailureFallsBack(t *testing.T) {
	orch := newTestOrchestrator(t)
	fa := &fakeAssistant{err: errors.New("model unavailable")}
	orch.WithAssistant(fa)

	resp := orch.ProcessRequest(context.Background(), contract.Request{UserMessage: "help me"})

	if resp.Status != contract.StatusOK {
		t.Fatalf("fallback must succeed, got %s", resp.Status)
	}
	if resp.Action != "PROMPT_LOGIN" {
		t.Fatalf("expected deterministic login gate, got %q", resp.Action)
	}

	c, ok := orch.cases.Get(resp.CaseID)
	if !ok {
		t.Fatal("case missing from store")
	}
	if len(c.UserMessages) != 1 {
		t.Fatalf("fallback must not duplicate the user message, got %d", len(c.UserMessages))
	}
}
