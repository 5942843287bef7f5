package plan

import (
	"fmt"
	"strings"

	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
)

// Generate is the workflow state machine. It is a pure function of the
// case snapshot and the latest user message: identical inputs always yield
// an identical plan, and the case is never mutated. Callers execute the
// steps and fold collaborator results back before the next turn.
//
// Gate order, each short-circuiting the rest:
//  1. login
//  2. product registration
//  3. missing product identifier / location
//  4. warranty determination
//  5. SALT / HEAT branch
func Generate(c casefile.CaseContext, userMessage string) Plan {
	if !c.LoggedIn {
		return Plan{
			Steps: []Step{ReturnAction{
				Action:  ActionPromptLogin,
				Message: "Please log in to access warranty services. You can ask simple questions without logging in, but warranty claims require authentication.",
			}},
			Reasoning: "User not logged in - prompting for login",
		}
	}

	if !c.HasRegisteredProducts {
		return Plan{
			Steps: []Step{ReturnAction{
				Action:  ActionPromptProductRegistration,
				Message: "You don't have any registered products. Please register your product to access warranty services.",
			}},
			Reasoning: "No registered products - prompting for registration",
		}
	}

	if missing := c.MissingFields(); len(missing) > 0 {
		return Plan{
			Steps: []Step{AskUserForInfo{
				RequiredFields: missing,
				Message:        fmt.Sprintf("To help you with your warranty request, I need the following information: %s", strings.Join(missing, ", ")),
			}},
			Reasoning: fmt.Sprintf("Missing required fields: %v", missing),
		}
	}

	if !c.WarrantyDetermined() {
		return Plan{
			Steps: []Step{
				CallTool{
					Tool: contract.ToolGetWarrantyRecord,
					Args: map[string]any{"product_id": c.ProductIdentifier()},
				},
				RespondToUser{
					Message: "I've retrieved your warranty information. Let me explain your coverage...",
				},
			},
			Reasoning: "Need to determine warranty status and product type",
		}
	}

	switch c.ProductType {
	case casefile.ProductSalt:
		return saltPlan(c)
	case casefile.ProductHeat:
		return heatPlan(c, userMessage)
	default:
		return Plan{
			Steps: []Step{
				RespondToUser{
					Message: fmt.Sprintf("I found an unexpected product type: %s. Let me connect you with support.", c.ProductType),
				},
				ReturnAction{Action: ActionEscalate},
			},
			Reasoning: fmt.Sprintf("Unknown product type: %s", c.ProductType),
		}
	}
}

func saltPlan(c casefile.CaseContext) Plan {
	if !c.Warranty.Active {
		return Plan{
			Steps: []Step{
				CallTool{
					Tool: contract.ToolGetServiceDirectory,
					Args: map[string]any{
						"product_type": string(casefile.ProductSalt),
						"location":     c.Location.Map(),
					},
				},
				RespondToUser{
					Message: "Your product is no longer under warranty. Here are authorized service providers in your area:",
				},
			},
			Reasoning: "SALT non-warranty path - returning service directory",
		}
	}

	return Plan{
		Steps: []Step{
			CallTool{
				Tool: contract.ToolRouteToQueue,
				Args: map[string]any{
					"queue":        "WarrantySalt",
					"case_context": c.ToolContext(),
					"priority":     "normal",
				},
			},
			CallTool{
				Tool: contract.ToolNotifyNextSteps,
				Args: map[string]any{
					"channel":     c.Channel,
					"template_id": "warranty_queued",
					"context": map[string]any{
						"product_name":            c.ProductID,
						"estimated_response_time": "24-48 hours",
						"next_action":             "A warranty specialist will contact you",
					},
				},
			},
			RespondToUser{
				Message: "Your warranty claim has been submitted! A specialist will contact you within 24-48 hours.",
			},
		},
		Reasoning: "SALT warranty path - case queued for service",
	}
}

// heatPlan is the multi-turn HEAT sub-state-machine. Strict order: charges
// before the proceed question, the proceed question before the territory
// check, the territory check before payment-link generation, and a decline
// always logs a reason.
func heatPlan(c casefile.CaseContext, userMessage string) Plan {
	if c.PotentialCharges == nil {
		return Plan{
			Steps: []Step{
				CallTool{
					Tool: contract.ToolCalculateCharges,
					Args: map[string]any{
						"product_id":      c.ProductIdentifier(),
						"product_type":    string(casefile.ProductHeat),
						"warranty_status": c.Warranty.Map(),
						"location":        c.Location.Map(),
					},
				},
				AskUserForInfo{
					RequiredFields: []string{"proceed_confirmation"},
					Message:        "Based on your warranty coverage, here are the potential charges. Would you like to proceed?",
				},
			},
			Reasoning: "HEAT path - calculating charges",
		}
	}

	decision := c.CustomerDecision
	if decision == casefile.DecisionPending || decision == "" {
		decision = ClassifyDecision(userMessage)
	}

	switch decision {
	case casefile.DecisionDecline:
		reason := userMessage
		if len(reason) <= 10 {
			reason = "Customer declined without specific reason"
		}
		return Plan{
			Steps: []Step{
				CallTool{
					Tool: contract.ToolLogDeclineReason,
					Args: map[string]any{
						"reason": reason,
						"context": map[string]any{
							"case_id":           c.CaseID,
							"product_id":        c.ProductIdentifier(),
							"potential_charges": *c.PotentialCharges,
							"warranty_status":   c.Warranty.Map(),
						},
					},
				},
				RespondToUser{
					Message: "I understand. I've noted your decision. If you change your mind or have any questions, please don't hesitate to reach out. Is there anything else I can help you with?",
				},
			},
			Reasoning: "HEAT path - customer declined, reason logged",
		}

	case casefile.DecisionProceed:
		return heatProceedPlan(c)

	default:
		return Plan{
			Steps: []Step{AskUserForInfo{
				RequiredFields: []string{"proceed_confirmation"},
				Message:        fmt.Sprintf("The estimated charge for service is $%.2f. Would you like to proceed? (Please reply Yes or No. If No, please let me know the reason.)", *c.PotentialCharges),
			}},
			Reasoning: "HEAT path - awaiting customer decision",
		}
	}
}

func heatProceedPlan(c casefile.CaseContext) Plan {
	if c.TerritoryChecked == nil {
		return Plan{
			Steps: []Step{CallTool{
				Tool: contract.ToolCheckTerritory,
				Args: map[string]any{"location": c.Location.Map()},
			}},
			Reasoning: "HEAT path - checking territory",
		}
	}

	if !c.TerritoryServiceable {
		return Plan{
			Steps: []Step{
				CallTool{
					Tool: contract.ToolGetServiceDirectory,
					Args: map[string]any{
						"product_type": string(casefile.ProductHeat),
						"location":     c.Location.Map(),
					},
				},
				RespondToUser{
					Message: "Unfortunately, your location is outside our direct service territory. Here are authorized service providers in your area who can help:",
				},
			},
			Reasoning: "HEAT path - not serviceable, returning directory",
		}
	}

	return Plan{
		Steps: []Step{
			CallTool{
				Tool: contract.ToolGeneratePayPalLink,
				Args: map[string]any{
					"amount": *c.PotentialCharges,
					"metadata": map[string]any{
						"case_id":     c.CaseID,
						"product_id":  c.ProductIdentifier(),
						"description": "HEAT product service charge",
					},
				},
			},
			RespondToUser{
				Message: fmt.Sprintf("Great! Please complete your payment of $%.2f using the link below. Once payment is confirmed, we'll schedule your service appointment.", *c.PotentialCharges),
			},
		},
		Reasoning: "HEAT path - payment link generated",
	}
}
