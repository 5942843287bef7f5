package contract

import (
	"time"

	"github.com/marquev/warranty-agent/agent/casefile"
)

// Tool names form the contract between the plan generator, the plan
// executor, and the external collaborators.
const (
	ToolGetWarrantyRecord   = "get_warranty_record"
	ToolGetWarrantyTerms    = "get_warranty_terms"
	ToolCalculateCharges    = "calculate_charges"
	ToolCheckTerritory      = "check_territory"
	ToolGetServiceDirectory = "get_service_directory"
	ToolRouteToQueue        = "route_to_queue"
	ToolGeneratePayPalLink  = "generate_paypal_link"
	ToolLogDeclineReason    = "log_decline_reason"
	ToolNotifyNextSteps     = "notify_next_steps"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request is what the calling surface sends per turn, abstracted from any
// particular transport.
type Request struct {
	CaseID      string `json:"case_id,omitempty"`
	UserMessage string `json:"user_message"`

	LoggedIn              bool   `json:"logged_in"`
	HasRegisteredProducts bool   `json:"has_registered_products"`
	CustomerID            string `json:"customer_id,omitempty"`
	CustomerName          string `json:"customer_name,omitempty"`
	CustomerEmail         string `json:"customer_email,omitempty"`

	ProductID    string            `json:"product_id,omitempty"`
	SerialNumber string            `json:"serial_number,omitempty"`
	Location     casefile.Location `json:"location"`

	IssueDescription string `json:"issue_description,omitempty"`
	Channel          string `json:"channel,omitempty"`
}

// NewCase builds a fresh case context from an inbound request.
func (r Request) NewCase(now time.Time) *casefile.CaseContext {
	c := casefile.New(now)
	c.LoggedIn = r.LoggedIn
	c.HasRegisteredProducts = r.HasRegisteredProducts
	c.CustomerID = r.CustomerID
	c.CustomerName = r.CustomerName
	c.CustomerEmail = r.CustomerEmail
	c.ProductID = r.ProductID
	c.SerialNumber = r.SerialNumber
	c.Location = r.Location
	c.IssueDescription = r.IssueDescription
	if r.Channel != "" {
		c.Channel = r.Channel
	}
	return c
}

// Response is what the orchestrator returns per turn.
type Response struct {
	CaseID     string         `json:"case_id"`
	Status     string         `json:"status"`
	Response   string         `json:"response"`
	Action     string         `json:"action,omitempty"`
	ActionData map[string]any `json:"action_data,omitempty"`
}

// ToolRequest names an external collaborator invocation.
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the wrapped outcome of a collaborator call. Data holds the
// collaborator's typed payload when Status is ok.
type ToolResult struct {
	Tool      string `json:"tool"`
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func OKResult(tool string, data any) ToolResult {
	return ToolResult{Tool: tool, Status: StatusOK, Data: data}
}

func ErrorResult(tool, code, message string) ToolResult {
	return ToolResult{Tool: tool, Status: StatusError, ErrorCode: code, Message: message}
}
