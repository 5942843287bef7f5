package executor

import (
	"context"
	"testing"
	"time"

	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
	"github.com/marquev/warranty-agent/agent/plan"
	"github.com/marquev/warranty-agent/pkg/actions"
	"github.com/marquev/warranty-agent/pkg/compute"
	"github.com/marquev/warranty-agent/pkg/warranty"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	results  map[string]contract.ToolResult
	requests []contract.ToolRequest
}

func (f *fakeGateway) Execute(ctx context.Context, req contract.ToolRequest) contract.ToolResult {
	f.requests = append(f.requests, req)
	if res, ok := f.results[req.Tool]; ok {
		return res
	}
	return contract.ErrorResult(req.Tool, "UNKNOWN_TOOL", "unknown tool: "+req.Tool)
}

func newCase() *casefile.CaseContext {
	c := casefile.New(testNow)
	c.LoggedIn = true
	c.HasRegisteredProducts = true
	c.ProductID = "HEAT-001"
	c.Location = casefile.Location{Zip: "77001", State: "TX"}
	return c
}

func TestExecuteStopsAtReturnAction(t *testing.T) {
	gw := &fakeGateway{}
	exec := New(gw)

	p := plan.Plan{Steps: []plan.Step{
		plan.ReturnAction{Action: plan.ActionPromptLogin, Message: "Please log in."},
		plan.CallTool{Tool: contract.ToolGetWarrantyRecord},
	}}

	out := exec.Execute(context.Background(), p, newCase(), testNow)

	if out.Action != string(plan.ActionPromptLogin) {
		t.Fatalf("expected PROMPT_LOGIN, got %s", out.Action)
	}
	if out.Response != "Please log in." {
		t.Fatalf("unexpected response: %q", out.Response)
	}
	if len(gw.requests) != 0 {
		t.Fatal("steps after RETURN_ACTION must not run")
	}
}

func TestExecuteStopsAtAskUser(t *testing.T) {
	gw := &fakeGateway{}
	exec := New(gw)

	p := plan.Plan{Steps: []plan.Step{
		plan.AskUserForInfo{RequiredFields: []string{"product_id"}, Message: "Which product?"},
		plan.RespondToUser{Message: "unreachable"},
	}}

	out := exec.Execute(context.Background(), p, newCase(), testNow)

	if out.Action != ActionAskUser {
		t.Fatalf("expected ASK_USER, got %s", out.Action)
	}
	fields, ok := out.ActionData["required_fields"].([]string)
	if !ok || len(fields) != 1 || fields[0] != "product_id" {
		t.Fatalf("expected required_fields in action data, got %v", out.ActionData)
	}
	if out.Response != "Which product?" {
		t.Fatalf("unexpected response: %q", out.Response)
	}
}

func TestExecuteJoinsResponses(t *testing.T) {
	exec := New(&fakeGateway{})

	p := plan.Plan{Steps: []plan.Step{
		plan.RespondToUser{Message: "first"},
		plan.RespondToUser{Message: "second"},
	}}

	out := exec.Execute(context.Background(), p, newCase(), testNow)

	if out.Response != "first\n\nsecond" {
		t.Fatalf("unexpected joined response: %q", out.Response)
	}
}

func TestExecuteFillerOnEmptyPlan(t *testing.T) {
	exec := New(&fakeGateway{})

	out := exec.Execute(context.Background(), plan.Plan{}, newCase(), testNow)

	if out.Response != "I'm here to help with your warranty request." {
		t.Fatalf("unexpected filler: %q", out.Response)
	}
}

func TestExecuteFoldsWarrantyRecord(t *testing.T) {
	record := &warranty.Record{
		ProductID:    "HEAT-001",
		ProductType:  "HEAT",
		ProductName:  "Heat Pump Water Heater Elite",
		SerialNumber: "SN-HEAT-2025-001111",
		PurchaseDate: "2025-01-01",
		WarrantyStatus: casefile.WarrantyStatus{
			Active:        true,
			CoverageTypes: []string{"parts", "tank"},
		},
	}
	gw := &fakeGateway{results: map[string]contract.ToolResult{
		contract.ToolGetWarrantyRecord: contract.OKResult(contract.ToolGetWarrantyRecord, record),
	}}
	exec := New(gw)

	c := newCase()
	p := plan.Plan{Steps: []plan.Step{
		plan.CallTool{Tool: contract.ToolGetWarrantyRecord, Args: map[string]any{"product_id": "HEAT-001"}},
		plan.RespondToUser{Message: "done"},
	}}

	exec.Execute(context.Background(), p, c, testNow)

	if c.ProductType != casefile.ProductHeat {
		t.Fatalf("expected HEAT, got %s", c.ProductType)
	}
	if c.ProductName != "Heat Pump Water Heater Elite" {
		t.Fatalf("product name not folded: %s", c.ProductName)
	}
	if c.Warranty == nil || !c.Warranty.Active {
		t.Fatal("warranty status not folded")
	}
	if c.SerialNumber != "SN-HEAT-2025-001111" {
		t.Fatal("serial number not backfilled")
	}
}

func TestExecuteFoldsCharges(t *testing.T) {
	estimate := &compute.ChargeEstimate{
		Summary: compute.ChargeSummary{TotalPotentialCharges: 410.00},
	}
	gw := &fakeGateway{results: map[string]contract.ToolResult{
		contract.ToolCalculateCharges: contract.OKResult(contract.ToolCalculateCharges, estimate),
	}}
	exec := New(gw)

	c := newCase()
	p := plan.Plan{Steps: []plan.Step{plan.CallTool{Tool: contract.ToolCalculateCharges}}}

	exec.Execute(context.Background(), p, c, testNow)

	if c.PotentialCharges == nil || *c.PotentialCharges != 410.00 {
		t.Fatalf("charges not folded: %v", c.PotentialCharges)
	}
}

func TestExecuteFoldsTerritoryAndSettlesDecision(t *testing.T) {
	gw := &fakeGateway{results: map[string]contract.ToolResult{
		contract.ToolCheckTerritory: contract.OKResult(contract.ToolCheckTerritory, &actions.TerritoryResult{Serviceable: true}),
	}}
	exec := New(gw)

	c := newCase()
	p := plan.Plan{Steps: []plan.Step{plan.CallTool{Tool: contract.ToolCheckTerritory}}}

	exec.Execute(context.Background(), p, c, testNow)

	if c.TerritoryChecked == nil || !*c.TerritoryChecked {
		t.Fatal("territory check not folded")
	}
	if !c.TerritoryServiceable {
		t.Fatal("serviceable flag not folded")
	}
	if c.CustomerDecision != casefile.DecisionProceed {
		t.Fatalf("expected PROCEED after territory check, got %s", c.CustomerDecision)
	}
}

func TestExecuteFoldsQueueCaseID(t *testing.T) {
	gw := &fakeGateway{results: map[string]contract.ToolResult{
		contract.ToolRouteToQueue: contract.OKResult(contract.ToolRouteToQueue, &actions.QueueReceipt{CaseID: "CASE-20260831-QUEUE001", Queue: "WarrantySalt"}),
	}}
	exec := New(gw)

	c := newCase()
	p := plan.Plan{Steps: []plan.Step{plan.CallTool{Tool: contract.ToolRouteToQueue}}}

	exec.Execute(context.Background(), p, c, testNow)

	if c.CaseID != "CASE-20260831-QUEUE001" {
		t.Fatalf("queue case id not folded: %s", c.CaseID)
	}
}

func TestExecuteRecordsDecline(t *testing.T) {
	gw := &fakeGateway{results: map[string]contract.ToolResult{
		contract.ToolLogDeclineReason: contract.OKResult(contract.ToolLogDeclineReason, &actions.DeclineLog{LogID: "LOG-1"}),
	}}
	exec := New(gw)

	c := newCase()
	p := plan.Plan{Steps: []plan.Step{plan.CallTool{Tool: contract.ToolLogDeclineReason}}}

	exec.Execute(context.Background(), p, c, testNow)

	if c.CustomerDecision != casefile.DecisionDecline {
		t.Fatalf("expected DECLINE, got %s", c.CustomerDecision)
	}
}

func TestExecuteSurfacesPaymentLink(t *testing.T) {
	gw := &fakeGateway{results: map[string]contract.ToolResult{
		contract.ToolGeneratePayPalLink: contract.OKResult(contract.ToolGeneratePayPalLink, &actions.PaymentLink{
			PaymentID:  "PAY-ABCDEF123456",
			PaymentURL: "https://www.sandbox.paypal.com/checkoutnow?token=PAY-ABCDEF123456",
		}),
	}}
	exec := New(gw)

	p := plan.Plan{Steps: []plan.Step{
		plan.CallTool{Tool: contract.ToolGeneratePayPalLink},
		plan.RespondToUser{Message: "pay here"},
	}}

	out := exec.Execute(context.Background(), p, newCase(), testNow)

	if out.ActionData["payment_url"] != "https://www.sandbox.paypal.com/checkoutnow?token=PAY-ABCDEF123456" {
		t.Fatalf("payment url missing from action data: %v", out.ActionData)
	}
}

func TestExecuteErrorResultDegrades(t *testing.T) {
	gw := &fakeGateway{results: map[string]contract.ToolResult{
		contract.ToolCalculateCharges: contract.ErrorResult(contract.ToolCalculateCharges, "TOOL_ERROR", "boom"),
	}}
	exec := New(gw)

	c := newCase()
	p := plan.Plan{Steps: []plan.Step{
		plan.CallTool{Tool: contract.ToolCalculateCharges},
		plan.RespondToUser{Message: "still here"},
	}}

	out := exec.Execute(context.Background(), p, c, testNow)

	if c.PotentialCharges != nil {
		t.Fatal("error result must not fold into the case")
	}
	if out.Response != "still here" {
		t.Fatalf("plan must continue after a failed tool, got %q", out.Response)
	}
}

func TestExecuteInjectsIdempotencyKeys(t *testing.T) {
	gw := &fakeGateway{}
	exec := New(gw)

	c := newCase()
	p := plan.Plan{Steps: []plan.Step{
		plan.CallTool{Tool: contract.ToolRouteToQueue, Args: map[string]any{"queue": "WarrantySalt"}},
		plan.CallTool{Tool: contract.ToolCheckTerritory, Args: map[string]any{}},
	}}

	exec.Execute(context.Background(), p, c, testNow)

	if len(gw.requests) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(gw.requests))
	}
	key, ok := gw.requests[0].Args["idempotency_key"].(string)
	if !ok || key != c.CaseID+":"+contract.ToolRouteToQueue {
		t.Fatalf("expected derived idempotency key, got %v", gw.requests[0].Args)
	}
	if _, ok := gw.requests[1].Args["idempotency_key"]; ok {
		t.Fatal("read-only tools must not get idempotency keys")
	}
}
