package plan

import (
	"fmt"

	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
)

var validActions = map[ActionType]struct{}{
	ActionPromptLogin:               {},
	ActionPromptProductRegistration: {},
	ActionCaseComplete:              {},
	ActionEscalate:                  {},
}

// Validate re-checks the ordering invariants against the case snapshot the
// plan was generated from. A violation here is a bug in the generator, not
// a user-facing condition, and is reported as a plan-contract error.
func Validate(p Plan, c casefile.CaseContext, userMessage string) error {
	var (
		hasChargeCalculation bool
		hasProceedQuestion   bool
		hasTerritoryCheck    bool
		hasPayPalLink        bool
		hasDeclineLog        bool
	)

	for _, step := range p.Steps {
		switch s := step.(type) {
		case ReturnAction:
			if s.Action != "" {
				if _, ok := validActions[s.Action]; !ok {
					return fmt.Errorf("%w: invalid action type %q", contract.ErrPlanContract, s.Action)
				}
			}
		case CallTool:
			switch s.Tool {
			case contract.ToolCalculateCharges:
				hasChargeCalculation = true
			case contract.ToolCheckTerritory:
				hasTerritoryCheck = true
			case contract.ToolGeneratePayPalLink:
				hasPayPalLink = true
			case contract.ToolLogDeclineReason:
				hasDeclineLog = true
			}
		case AskUserForInfo:
			for _, f := range s.RequiredFields {
				if f == "proceed_confirmation" {
					hasProceedQuestion = true
				}
			}
		case RespondToUser:
		default:
			return fmt.Errorf("%w: invalid step type %T", contract.ErrPlanContract, step)
		}
	}

	if c.ProductType != casefile.ProductHeat {
		return nil
	}

	// The decision may settle this turn from the message; mirror the
	// generator's classification before judging ordering.
	decision := c.CustomerDecision
	if decision == casefile.DecisionPending || decision == "" {
		decision = ClassifyDecision(userMessage)
	}

	if hasPayPalLink && c.TerritoryChecked == nil && !hasTerritoryCheck {
		return fmt.Errorf("%w: territory must be checked before generating PayPal link", contract.ErrPlanContract)
	}

	if hasTerritoryCheck {
		if c.PotentialCharges == nil {
			return fmt.Errorf("%w: charges must be calculated before territory check", contract.ErrPlanContract)
		}
		if decision != casefile.DecisionProceed {
			return fmt.Errorf("%w: customer must confirm proceeding before territory check", contract.ErrPlanContract)
		}
	}

	if hasProceedQuestion && c.PotentialCharges == nil && !hasChargeCalculation {
		return fmt.Errorf("%w: charges must be calculated before asking to proceed", contract.ErrPlanContract)
	}

	if hasDeclineLog && c.PotentialCharges == nil {
		return fmt.Errorf("%w: decline can only be logged after charges were presented", contract.ErrPlanContract)
	}

	return nil
}
