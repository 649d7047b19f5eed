// Package classifier maps unstructured grievance text to a priority tier.
// It is a precedence-ordered keyword rule table: tiers are evaluated
// CRITICAL before HIGH before MEDIUM, the first tier with a keyword hit
// wins, and LOW is the default. The function is pure and deterministic so
// it can back both grievance creation and the classify preview endpoint,
// and can later be swapped for a model behind the same contract.
package classifier

import "strings"

// Priority tiers in descending precedence.
const (
	PriorityCritical = "CRITICAL"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
	PriorityLow      = "LOW"
)

// rule binds a tier to its keyword set. Matching is case-insensitive
// substring containment, so collisions inside unrelated words
// ("deathly" contains "death") are a known, accepted limitation.
type rule struct {
	tier     string
	keywords []string
}

// rules are evaluated in order; earlier tiers take precedence.
var rules = []rule{
	{
		tier: PriorityCritical,
		keywords: []string{
			"death", "murder", "rape", "life-threatening",
			"life threatening", "kill", "suicide", "emergency",
		},
	},
	{
		tier: PriorityHigh,
		keywords: []string{
			"urgent", "immediate", "threat", "violence", "medical",
		},
	},
	{
		tier: PriorityMedium,
		keywords: []string{
			"delayed", "pending", "payment", "verification",
		},
	},
}

// Classify returns the priority tier for a grievance. Empty input matches
// no tier and yields LOW; Classify never fails.
func Classify(title, description, category string) string {
	text := strings.ToLower(strings.TrimSpace(title + " " + description + " " + category))
	if text == "" {
		return PriorityLow
	}

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.tier
			}
		}
	}
	return PriorityLow
}
