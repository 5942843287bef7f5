// Package plan contains the deterministic workflow state machine: given
// the accumulated case state and the latest user message it produces an
// ordered list of typed steps describing what must happen next.
package plan

// Step kinds, used for logging and contract validation.
const (
	KindAskUserForInfo = "ASK_USER_FOR_INFO"
	KindCallTool       = "CALL_TOOL"
	KindReturnAction   = "RETURN_ACTION"
	KindRespondToUser  = "RESPOND_TO_USER"
)

// ActionType is the control action a RETURN_ACTION step hands back to the
// calling surface.
type ActionType string

const (
	ActionPromptLogin               ActionType = "PROMPT_LOGIN"
	ActionPromptProductRegistration ActionType = "PROMPT_PRODUCT_REGISTRATION"
	ActionCaseComplete              ActionType = "CASE_COMPLETE"
	ActionEscalate                  ActionType = "ESCALATE"
)

// Step is one tagged action within a plan. Exactly four kinds exist; each
// variant carries only the fields that kind uses.
type Step interface {
	Kind() string
}

// AskUserForInfo requests missing information from the user and ends the
// turn.
type AskUserForInfo struct {
	RequiredFields []string
	Message        string
}

func (AskUserForInfo) Kind() string { return KindAskUserForInfo }

// CallTool instructs the executor to invoke a named external collaborator.
type CallTool struct {
	Tool string
	Args map[string]any
}

func (CallTool) Kind() string { return KindCallTool }

// ReturnAction signals a control action for the calling surface and ends
// the turn.
type ReturnAction struct {
	Action  ActionType
	Message string
}

func (ReturnAction) Kind() string { return KindReturnAction }

// RespondToUser appends user-visible text; it does not terminate the turn
// by itself.
type RespondToUser struct {
	Message string
}

func (RespondToUser) Kind() string { return KindRespondToUser }

// Plan is the ordered sequence of steps for one turn, with the generator's
// reasoning for diagnostics.
type Plan struct {
	Steps     []Step
	Reasoning string
}

// FirstTool returns the name of the first CALL_TOOL step, or "".
func (p Plan) FirstTool() string {
	for _, s := range p.Steps {
		if ct, ok := s.(CallTool); ok {
			return ct.Tool
		}
	}
	return ""
}

// HasTool reports whether the plan contains a CALL_TOOL step for the given
// tool name.
func (p Plan) HasTool(name string) bool {
	for _, s := range p.Steps {
		if ct, ok := s.(CallTool); ok && ct.Tool == name {
			return true
		}
	}
	return false
}
