// Package executor walks a generated plan step by step, invoking
// collaborator tools and folding their results back into the case.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
	"github.com/marquev/warranty-agent/agent/plan"
	"github.com/marquev/warranty-agent/pkg/actions"
	"github.com/marquev/warranty-agent/pkg/compute"
	"github.com/marquev/warranty-agent/pkg/warranty"
)

// ActionAskUser marks a turn that stopped to wait for user input.
const ActionAskUser = "ASK_USER"

const fillerResponse = "I'm here to help with your warranty request."

// Outcome is what one executed turn hands back to the orchestrator.
type Outcome struct {
	Response   string
	Action     string
	ActionData map[string]any
}

// Executor runs plans against a tool gateway. Tool failures degrade the
// turn: the failed step folds nothing and the plan continues.
type Executor struct {
	tools contract.ToolGateway
}

func New(tools contract.ToolGateway) *Executor {
	return &Executor{tools: tools}
}

// Execute walks the plan in order. RETURN_ACTION and ASK_USER_FOR_INFO
// stop the walk; CALL_TOOL and RESPOND_TO_USER continue. Steps run
// strictly sequentially because later steps read what earlier ones wrote
// into the case.
func (e *Executor) Execute(ctx context.Context, p plan.Plan, c *casefile.CaseContext, now time.Time) Outcome {
	var responses []string
	var action string
	actionData := map[string]any{}

steps:
	for _, step := range p.Steps {
		switch s := step.(type) {
		case plan.ReturnAction:
			action = string(s.Action)
			if s.Message != "" {
				responses = append(responses, s.Message)
				actionData["message"] = s.Message
			}
			break steps

		case plan.AskUserForInfo:
			responses = append(responses, s.Message)
			action = ActionAskUser
			actionData["required_fields"] = s.RequiredFields
			break steps

		case plan.CallTool:
			result := e.tools.Execute(ctx, contract.ToolRequest{
				Tool: s.Tool,
				Args: withIdempotencyKey(s.Tool, s.Args, c.CaseID),
			})
			e.fold(c, result, now, actionData)

		case plan.RespondToUser:
			responses = append(responses, s.Message)
		}
	}

	response := fillerResponse
	if len(responses) > 0 {
		response = joinResponses(responses)
	}
	if len(actionData) == 0 {
		actionData = nil
	}

	return Outcome{Response: response, Action: action, ActionData: actionData}
}

func joinResponses(responses []string) string {
	out := responses[0]
	for _, r := range responses[1:] {
		out += "\n\n" + r
	}
	return out
}

// Mutating tools get a deterministic per-case key so a replayed turn
// returns the original receipt instead of acting twice.
func withIdempotencyKey(tool string, args map[string]any, caseID string) map[string]any {
	switch tool {
	case contract.ToolRouteToQueue, contract.ToolGeneratePayPalLink, contract.ToolLogDeclineReason:
	default:
		return args
	}
	if args == nil {
		args = map[string]any{}
	}
	if _, ok := args["idempotency_key"]; !ok {
		args["idempotency_key"] = fmt.Sprintf("%s:%s", caseID, tool)
	}
	return args
}

// fold applies the fixed per-tool mapping of results into the case. An
// error result folds nothing.
func (e *Executor) fold(c *casefile.CaseContext, result contract.ToolResult, now time.Time, actionData map[string]any) {
	if result.Status != contract.StatusOK {
		log.Warn().
			Str("tool", result.Tool).
			Str("error_code", result.ErrorCode).
			Str("case_id", c.CaseID).
			Msg("tool result not folded")
		return
	}

	switch result.Tool {
	case contract.ToolGetWarrantyRecord:
		record, ok := result.Data.(*warranty.Record)
		if !ok {
			return
		}
		c.ProductType = casefile.ProductType(record.ProductType)
		c.ProductName = record.ProductName
		c.PurchaseDate = record.PurchaseDate
		if c.SerialNumber == "" {
			c.SerialNumber = record.SerialNumber
		}
		status := record.WarrantyStatus
		c.Warranty = &status
		c.Touch(now)

	case contract.ToolCalculateCharges:
		estimate, ok := result.Data.(*compute.ChargeEstimate)
		if !ok {
			return
		}
		total := estimate.Summary.TotalPotentialCharges
		c.PotentialCharges = &total
		c.Touch(now)

	case contract.ToolCheckTerritory:
		territory, ok := result.Data.(*actions.TerritoryResult)
		if !ok {
			return
		}
		checked := true
		c.TerritoryChecked = &checked
		c.TerritoryServiceable = territory.Serviceable
		// Reaching the territory check means the customer agreed to the
		// charges this turn or earlier; settle the decision.
		c.SetDecision(casefile.DecisionProceed, now)

	case contract.ToolRouteToQueue:
		receipt, ok := result.Data.(*actions.QueueReceipt)
		if !ok {
			return
		}
		if receipt.CaseID != "" {
			c.CaseID = receipt.CaseID
		}
		c.Touch(now)

	case contract.ToolGeneratePayPalLink:
		link, ok := result.Data.(*actions.PaymentLink)
		if !ok {
			return
		}
		actionData["payment_id"] = link.PaymentID
		actionData["payment_url"] = link.PaymentURL

	case contract.ToolLogDeclineReason:
		c.SetDecision(casefile.DecisionDecline, now)

	case contract.ToolGetServiceDirectory:
		directory, ok := result.Data.(*actions.Directory)
		if !ok {
			return
		}
		actionData["providers"] = directory.Providers
	}
}
