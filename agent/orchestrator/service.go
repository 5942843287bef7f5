// Package orchestrator coordinates one conversation turn: resolve the
// case, generate and validate a plan, execute it, and shape the reply.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
	"github.com/marquev/warranty-agent/agent/executor"
)

const apologyResponse = "I apologize, but I encountered an error processing your request. Please try again."

// Orchestrator owns the turn loop. The deterministic plan pipeline always
// works; the assistant, when configured, may answer a turn first and
// falls back to the pipeline on any failure.
type Orchestrator struct {
	cases     *casefile.Store
	tools     contract.ToolGateway
	assistant contract.Assistant
	exec      *executor.Executor

	graphRunner compose.Runnable[*graphState, contract.Response]

	now func() time.Time
}

func New(cases *casefile.Store, tools contract.ToolGateway) (*Orchestrator, error) {
	if cases == nil {
		return nil, errors.New("case store is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	o := &Orchestrator{
		cases: cases,
		tools: tools,
		exec:  executor.New(tools),
		now:   time.Now,
	}

	graphRunner, err := o.compileProcessRequestGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// WithAssistant lets the chat model attempt turns before the
// deterministic pipeline.
func (o *Orchestrator) WithAssistant(a contract.Assistant) *Orchestrator {
	o.assistant = a
	return o
}

// WithClock overrides the orchestrator clock. Intended for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// ProcessRequest runs one turn. Requests naming an existing case take
// that case's advisory lock for the whole turn, so rapid double-submits
// serialize instead of racing.
func (o *Orchestrator) ProcessRequest(ctx context.Context, req contract.Request) contract.Response {
	if req.CaseID != "" {
		unlock := o.cases.Lock(req.CaseID)
		defer unlock()
	}

	if strings.TrimSpace(req.UserMessage) == "" {
		return contract.Response{
			CaseID:   req.CaseID,
			Status:   contract.StatusError,
			Response: "Please enter a message so I can help you.",
		}
	}

	now := o.now()
	c := o.resolveCase(req, now)

	if o.assistant != nil {
		if resp, ok := o.tryAssistant(ctx, req, c); ok {
			return resp
		}
	}

	resp, err := o.graphRunner.Invoke(ctx, &graphState{Request: req, Now: now, Case: c})
	if err != nil {
		log.Error().Err(err).Str("case_id", c.CaseID).Msg("turn failed")
		return contract.Response{
			CaseID:   c.CaseID,
			Status:   contract.StatusError,
			Response: apologyResponse,
		}
	}
	return resp
}

// tryAssistant lets the chat model handle the turn against the same tool
// surface. Any failure falls back to the deterministic pipeline.
func (o *Orchestrator) tryAssistant(ctx context.Context, req contract.Request, c *casefile.CaseContext) (contract.Response, bool) {
	caseJSON, err := json.Marshal(c)
	if err != nil {
		log.Warn().Err(err).Str("case_id", c.CaseID).Msg("case serialization failed, using deterministic planner")
		return contract.Response{}, false
	}

	reply, err := o.assistant.Respond(ctx, string(caseJSON), req.UserMessage)
	if err != nil {
		log.Warn().Err(err).Str("case_id", c.CaseID).Msg("assistant failed, using deterministic planner")
		return contract.Response{}, false
	}

	return contract.Response{
		CaseID:   c.CaseID,
		Status:   contract.StatusOK,
		Response: reply,
	}, true
}

// resolveCase finds the case named by the request or creates one, then
// refreshes it from the request fields. Later turns may fill in fields
// the first request lacked, but never blank out known ones.
func (o *Orchestrator) resolveCase(req contract.Request, now time.Time) *casefile.CaseContext {
	var c *casefile.CaseContext
	if req.CaseID != "" {
		if found, ok := o.cases.Get(req.CaseID); ok {
			c = found
		}
	}
	if c == nil {
		c = req.NewCase(now)
	} else {
		// The gate booleans only ever move false to true; a continuation
		// request omitting them must not log the customer back out.
		if req.LoggedIn {
			c.LoggedIn = true
		}
		if req.HasRegisteredProducts {
			c.HasRegisteredProducts = true
		}
		if req.CustomerID != "" {
			c.CustomerID = req.CustomerID
		}
		if req.ProductID != "" {
			c.ProductID = req.ProductID
		}
		if req.SerialNumber != "" {
			c.SerialNumber = req.SerialNumber
		}
		if req.Location.IsComplete() {
			c.Location = req.Location
		}
		if req.IssueDescription != "" {
			c.IssueDescription = req.IssueDescription
		}
	}
	c.AddUserMessage(req.UserMessage, now)
	o.cases.Put(c)
	return c
}
