package plan

import (
	"strings"

	"github.com/marquev/warranty-agent/agent/casefile"
)

// Keyword lists for proceed/decline detection. These are a known-fragile
// heuristic ("not sure" matches "sure") but are kept as-is for behavioral
// parity; changing them needs product guidance.
var (
	acceptWords  = []string{"yes", "proceed", "continue", "ok", "sure", "agree", "go ahead"}
	declineWords = []string{"no", "cancel", "stop", "decline", "don't", "dont", "expensive", "can't afford"}
)

// ClassifyDecision detects an explicit proceed/decline intent in the
// user's message by substring match. Accept words are checked first.
// Returns DecisionPending when neither list matches.
func ClassifyDecision(message string) casefile.CustomerDecision {
	lower := strings.ToLower(message)
	for _, w := range acceptWords {
		if strings.Contains(lower, w) {
			return casefile.DecisionProceed
		}
	}
	for _, w := range declineWords {
		if strings.Contains(lower, w) {
			return casefile.DecisionDecline
		}
	}
	return casefile.DecisionPending
}
