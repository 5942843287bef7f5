// Package assistant is the optional chat-model front-end. It reasons
// over the case and may call the same workflow tools the deterministic
// pipeline uses; it never bypasses them.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/marquev/warranty-agent/agent/contract"
	"github.com/marquev/warranty-agent/agent/prompt"
	"github.com/marquev/warranty-agent/agent/tool"
)

// One user turn allows a short burst of tool calls, then the model must
// answer in prose.
const maxToolIterations = 4

// LLMBuilder builds the underlying tool-calling chat model.
type LLMBuilder interface {
	New(ctx context.Context) (einomodel.ToolCallingChatModel, error)
}

// LLMAssistant implements contract.Assistant on top of a tool-calling
// chat model bound to the workflow tool catalog.
type LLMAssistant struct {
	model        einomodel.ToolCallingChatModel
	tools        contract.ToolGateway
	systemPrompt string
}

// New builds the assistant: creates the chat model and binds the tool
// catalog to it.
func New(ctx context.Context, builder LLMBuilder, tools contract.ToolGateway) (*LLMAssistant, error) {
	base, err := builder.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create assistant model: %v", contract.ErrModelInvoke, err)
	}

	bound, err := base.WithTools(tool.Catalog())
	if err != nil {
		return nil, fmt.Errorf("%w: bind assistant tools: %v", contract.ErrModelInvoke, err)
	}

	return &LLMAssistant{
		model:        bound,
		tools:        tools,
		systemPrompt: prompt.LoadPromptSet().Assistant,
	}, nil
}

// Respond runs the tool-call loop for one turn and returns the model's
// final prose answer.
func (a *LLMAssistant) Respond(ctx context.Context, caseJSON, userMessage string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(a.systemPrompt),
		schema.UserMessage(fmt.Sprintf(
			"Current case context:\n%s\n\nUser message: %s\n\nBased on the workflow constraints, determine the appropriate next steps.",
			caseJSON, userMessage,
		)),
	}

	for i := 0; i < maxToolIterations; i++ {
		msg, err := a.model.Generate(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("%w: assistant generate: %v", contract.ErrModelInvoke, err)
		}
		if msg == nil {
			return "", fmt.Errorf("%w: empty assistant response", contract.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return "", fmt.Errorf("%w: assistant returned no content", contract.ErrSchemaViolation)
			}
			return content, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result := a.executeCall(ctx, call)
			payload, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("%w: marshal tool result: %v", contract.ErrValidation, err)
			}
			messages = append(messages, schema.ToolMessage(string(payload), call.ID))
		}
	}

	return "", fmt.Errorf("%w: assistant exceeded %d tool iterations", contract.ErrModelInvoke, maxToolIterations)
}

func (a *LLMAssistant) executeCall(ctx context.Context, call schema.ToolCall) contract.ToolResult {
	name := call.Function.Name

	var args map[string]any
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("assistant tool arguments malformed")
			return contract.ErrorResult(name, tool.CodeToolError, "malformed tool arguments")
		}
	}

	log.Debug().Str("tool", name).Msg("assistant tool call")
	return a.tools.Execute(ctx, contract.ToolRequest{Tool: name, Args: args})
}
