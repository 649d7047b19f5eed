package classifier

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		category    string
		want        string
	}{
		{
			name:        "death threat is critical",
			title:       "Accused issued death threats against my family",
			description: "We fear for our lives",
			want:        PriorityCritical,
		},
		{
			name:        "urgent medical is high",
			title:       "Need urgent medical assistance",
			description: "Hospital bills unpaid",
			want:        PriorityHigh,
		},
		{
			name:        "delayed payment is medium",
			title:       "Compensation payment delayed",
			description: "No update for three months",
			want:        PriorityMedium,
		},
		{
			name:        "no keywords falls through to low",
			title:       "General question about my record",
			description: "Would like a copy of the order",
			want:        PriorityLow,
		},
		{
			name:        "critical outranks high when both match",
			title:       "Urgent: received murder threat",
			description: "Immediate action needed",
			want:        PriorityCritical,
		},
		{
			name:        "high outranks medium when both match",
			title:       "Urgent follow-up",
			description: "Payment still pending",
			want:        PriorityHigh,
		},
		{
			name:        "match is case-insensitive",
			title:       "DEATH in custody",
			description: "",
			want:        PriorityCritical,
		},
		{
			name:        "keyword in description alone",
			title:       "Complaint",
			description: "The accused threatened violence again",
			want:        PriorityHigh,
		},
		{
			name:        "keyword in category alone",
			title:       "Complaint",
			description: "See attached",
			category:    "payment",
			want:        PriorityMedium,
		},
		{
			name:        "substring match inside a word",
			title:       "The killing continues",
			description: "",
			want:        PriorityCritical,
		},
		{
			name: "empty input is low",
			want: PriorityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.title, tt.description, tt.category)
			if got != tt.want {
				t.Errorf("Classify(%q, %q, %q) = %q, want %q",
					tt.title, tt.description, tt.category, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	title := "urgent threat of violence"
	desc := "payment delayed, life threatening situation"

	first := Classify(title, desc, "")
	for i := 0; i < 100; i++ {
		if got := Classify(title, desc, ""); got != first {
			t.Fatalf("run %d: got %q, first run gave %q", i, got, first)
		}
	}
}

func TestRulePrecedenceOrder(t *testing.T) {
	want := []string{PriorityCritical, PriorityHigh, PriorityMedium}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rule tiers, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.tier != want[i] {
			t.Errorf("rule %d: tier %q, want %q", i, r.tier, want[i])
		}
		if len(r.keywords) == 0 {
			t.Errorf("rule %d (%s): empty keyword set", i, r.tier)
		}
	}
}
