package contract

import "context"

// ToolGateway dispatches a tool request to the owning collaborator.
// Failures of any kind are reported as status=error results, never as Go
// errors: a failed lookup degrades the turn, it does not abort it.
type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) ToolResult
}

// Assistant is the optional LLM front-end. It may reason freely and call
// tools through the same gateway; on any error the orchestrator falls back
// to the deterministic planner.
type Assistant interface {
	Respond(ctx context.Context, caseJSON string, userMessage string) (string, error)
}
