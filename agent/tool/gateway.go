// Package tool bridges plan steps and the LLM to the concrete
// collaborator services behind one uniform call surface.
package tool

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marquev/warranty-agent/agent/contract"
	"github.com/marquev/warranty-agent/pkg/actions"
	"github.com/marquev/warranty-agent/pkg/compute"
	"github.com/marquev/warranty-agent/pkg/warranty"
)

// Error codes surfaced on failed tool results.
const (
	CodeMissingIdentifier  = "MISSING_IDENTIFIER"
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodeUnknownProductType = "UNKNOWN_PRODUCT_TYPE"
	CodeNoProviders        = "NO_PROVIDERS"
	CodeUnknownTool        = "UNKNOWN_TOOL"
	CodeToolError          = "TOOL_ERROR"
	CodeToolTimeout        = "TOOL_TIMEOUT"
)

const defaultTimeout = 10 * time.Second

// Gateway executes tool requests against the warranty, compute, and
// action services. It satisfies contract.ToolGateway: failures never
// surface as Go errors, only as error-status results, so a broken
// collaborator degrades the turn instead of aborting it.
type Gateway struct {
	warranty *warranty.Service
	actions  *actions.Service
	timeout  time.Duration
}

// NewGateway wires a Gateway over the collaborator services.
func NewGateway(warrantySvc *warranty.Service, actionSvc *actions.Service) *Gateway {
	return &Gateway{
		warranty: warrantySvc,
		actions:  actionSvc,
		timeout:  defaultTimeout,
	}
}

// WithTimeout overrides the per-call budget.
func (g *Gateway) WithTimeout(d time.Duration) *Gateway {
	if d > 0 {
		g.timeout = d
	}
	return g
}

// Execute runs one tool request within the call budget.
func (g *Gateway) Execute(ctx context.Context, req contract.ToolRequest) contract.ToolResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan contract.ToolResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("tool", req.Tool).Interface("panic", r).Msg("tool panicked")
				done <- contract.ErrorResult(req.Tool, CodeToolError, "tool execution failed")
			}
		}()
		done <- g.dispatch(ctx, req)
	}()

	select {
	case res := <-done:
		if res.Status == contract.StatusError {
			log.Warn().Str("tool", req.Tool).Str("error_code", res.ErrorCode).Str("message", res.Message).Msg("tool failed")
		}
		return res
	case <-ctx.Done():
		log.Warn().Str("tool", req.Tool).Dur("timeout", g.timeout).Msg("tool timed out")
		return contract.ErrorResult(req.Tool, CodeToolTimeout, "tool did not complete in time")
	}
}

func (g *Gateway) dispatch(ctx context.Context, req contract.ToolRequest) contract.ToolResult {
	args := req.Args
	if args == nil {
		args = map[string]any{}
	}

	switch req.Tool {
	case contract.ToolGetWarrantyRecord:
		record, err := g.warranty.GetWarrantyRecord(ctx, argString(args, "product_id"), argString(args, "serial_number"))
		if err != nil {
			switch {
			case errors.Is(err, warranty.ErrMissingIdentifier):
				return contract.ErrorResult(req.Tool, CodeMissingIdentifier, "Either product_id or serial_number is required")
			case errors.Is(err, warranty.ErrNotFound):
				return contract.ErrorResult(req.Tool, CodeProductNotFound, err.Error())
			default:
				return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
			}
		}
		return contract.OKResult(req.Tool, record)

	case contract.ToolGetWarrantyTerms:
		terms, err := g.warranty.GetWarrantyTerms(ctx)
		if err != nil {
			return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
		}
		return contract.OKResult(req.Tool, terms)

	case contract.ToolCalculateCharges:
		estimate, err := compute.CalculateCharges(compute.ChargeInput{
			ProductID:       argString(args, "product_id"),
			ProductType:     argString(args, "product_type"),
			ActiveCoverages: activeCoverages(argMap(args, "warranty_status")),
			State:           argString(argMap(args, "location"), "state"),
		})
		if err != nil {
			if errors.Is(err, compute.ErrUnknownProductType) {
				return contract.ErrorResult(req.Tool, CodeUnknownProductType, err.Error())
			}
			return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
		}
		return contract.OKResult(req.Tool, estimate)

	case contract.ToolCheckTerritory:
		return contract.OKResult(req.Tool, g.actions.CheckTerritory(argMap(args, "location")))

	case contract.ToolGetServiceDirectory:
		dir, err := g.actions.GetServiceDirectory(
			argString(args, "product_type"),
			argMap(args, "location"),
			argFloat(args, "max_distance_miles"),
			actions.DirectoryFilters{CertifiedOnly: argBool(argMap(args, "filters"), "certified_only")},
		)
		if err != nil {
			if errors.Is(err, actions.ErrNoProviders) {
				return contract.ErrorResult(req.Tool, CodeNoProviders, err.Error())
			}
			return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
		}
		return contract.OKResult(req.Tool, dir)

	case contract.ToolRouteToQueue:
		receipt, err := g.actions.RouteToQueue(ctx,
			argString(args, "queue"),
			argMap(args, "case_context"),
			argString(args, "priority"),
			argString(args, "idempotency_key"),
		)
		if err != nil {
			return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
		}
		return contract.OKResult(req.Tool, receipt)

	case contract.ToolGeneratePayPalLink:
		link, err := g.actions.GeneratePayPalLink(ctx,
			argFloat(args, "amount"),
			argMap(args, "metadata"),
			argString(args, "currency"),
			argString(args, "idempotency_key"),
		)
		if err != nil {
			return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
		}
		return contract.OKResult(req.Tool, link)

	case contract.ToolLogDeclineReason:
		declineLog, err := g.actions.LogDeclineReason(ctx,
			argString(args, "reason"),
			argMap(args, "context"),
			argString(args, "idempotency_key"),
		)
		if err != nil {
			return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
		}
		return contract.OKResult(req.Tool, declineLog)

	case contract.ToolNotifyNextSteps:
		notification, err := g.actions.NotifyNextSteps(ctx,
			argString(args, "channel"),
			argString(args, "template_id"),
			argMap(args, "context"),
			argMap(args, "recipient"),
		)
		if err != nil {
			return contract.ErrorResult(req.Tool, CodeToolError, err.Error())
		}
		return contract.OKResult(req.Tool, notification)

	default:
		return contract.ErrorResult(req.Tool, CodeUnknownTool, "unknown tool: "+req.Tool)
	}
}

func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, _ := args[key].(string)
	return v
}

func argFloat(args map[string]any, key string) float64 {
	if args == nil {
		return 0
	}
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func argBool(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	v, _ := args[key].(bool)
	return v
}

func argMap(args map[string]any, key string) map[string]any {
	if args == nil {
		return nil
	}
	v, _ := args[key].(map[string]any)
	return v
}

// activeCoverages tolerates both []string and the []any produced by JSON
// round-trips through the LLM tool-call path.
func activeCoverages(warrantyStatus map[string]any) []string {
	if warrantyStatus == nil {
		return nil
	}
	switch types := warrantyStatus["coverage_types"].(type) {
	case []string:
		return types
	case []any:
		out := make([]string, 0, len(types))
		for _, t := range types {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
