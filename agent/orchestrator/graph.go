package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
	"github.com/marquev/warranty-agent/agent/executor"
	"github.com/marquev/warranty-agent/agent/plan"
)

var ErrInvalidMessage = errors.New("user message is required")

// graphState flows between the turn-pipeline nodes. The case is resolved
// before the graph runs so the assistant and the deterministic pipeline
// share one view of it.
type graphState struct {
	Request contract.Request
	Now     time.Time

	Case    *casefile.CaseContext
	Plan    plan.Plan
	Outcome executor.Outcome
}

func (o *Orchestrator) compileProcessRequestGraph(
	ctx context.Context,
) (compose.Runnable[*graphState, contract.Response], error) {
	graph := compose.NewGraph[*graphState, contract.Response]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, st *graphState) (*graphState, error) {
			if strings.TrimSpace(st.Request.UserMessage) == "" {
				return nil, ErrInvalidMessage
			}
			if st.Case == nil {
				return nil, errors.New("turn has no case context")
			}
			return st, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_turn: %w", err)
	}

	if err := graph.AddLambdaNode("generate_plan",
		compose.InvokableLambda(func(ctx context.Context, st *graphState) (*graphState, error) {
			st.Plan = plan.Generate(*st.Case, st.Request.UserMessage)
			if err := plan.Validate(st.Plan, *st.Case, st.Request.UserMessage); err != nil {
				return nil, err
			}
			return st, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate_plan: %w", err)
	}

	if err := graph.AddLambdaNode("execute_plan",
		compose.InvokableLambda(func(ctx context.Context, st *graphState) (*graphState, error) {
			st.Outcome = o.exec.Execute(ctx, st.Plan, st.Case, st.Now)
			o.cases.Put(st.Case)
			return st, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_plan: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_response",
		compose.InvokableLambda(func(ctx context.Context, st *graphState) (contract.Response, error) {
			return contract.Response{
				CaseID:     st.Case.CaseID,
				Status:     contract.StatusOK,
				Response:   st.Outcome.Response,
				Action:     st.Outcome.Action,
				ActionData: st.Outcome.ActionData,
			}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_response: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"validate_turn", "generate_plan"},
		{"generate_plan", "execute_plan"},
		{"execute_plan", "finalize_response"},
		{"finalize_response", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.process_request"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
