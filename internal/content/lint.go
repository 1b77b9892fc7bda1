package content

import (
	"fmt"

	"scenario-quiz-service/internal/domain"
)

// Severity of a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// OptionsPerScenario is the authoring convention for option count.
const OptionsPerScenario = 4

// Issue is one lint finding.
type Issue struct {
	Quiz     string   `json:"quiz"`
	Scenario string   `json:"scenario,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Scenario == "" {
		return fmt.Sprintf("%s: %s: %s", i.Severity, i.Quiz, i.Message)
	}
	return fmt.Sprintf("%s: %s/%s: %s", i.Severity, i.Quiz, i.Scenario, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Lint checks authoring conventions the engine does not enforce.
func Lint(quiz domain.Quiz) []Issue {
	var issues []Issue
	add := func(scenario string, sev Severity, format string, args ...any) {
		issues = append(issues, Issue{
			Quiz:     quiz.Name,
			Scenario: scenario,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	seen := make(map[string]domain.Tier)
	for _, tier := range domain.Tiers {
		for _, sc := range quiz.Scenarios.ForTier(tier) {
			if prev, dup := seen[sc.ID]; dup {
				add(sc.ID, SeverityError, "duplicate scenario id (also in %s)", prev)
			}
			seen[sc.ID] = tier

			if len(sc.Options) != OptionsPerScenario {
				add(sc.ID, SeverityError, "has %d options, want %d", len(sc.Options), OptionsPerScenario)
			}

			best, top, positive := sc.MaxExperience(), 0, 0
			for _, opt := range sc.Options {
				if opt.Experience == best {
					top++
				}
				if opt.Experience > 0 {
					positive++
				}
			}
			if positive == 0 {
				add(sc.ID, SeverityWarning, "no option awards experience")
			}
			if top > 1 {
				add(sc.ID, SeverityWarning, "%d options share the best experience value %d", top, best)
			}
		}
	}

	r := quiz.Rules
	if reachable := bestRun(quiz.Scenarios.Basic, r.Basic.Questions); reachable < r.Basic.MinXP {
		add("", SeverityWarning, "intermediate tier unreachable: at most %d XP after %d basic questions, gate needs %d",
			reachable, r.Basic.Questions, r.Basic.MinXP)
	}
	if r.TotalQuestions <= r.Intermediate.Questions {
		add("", SeverityWarning, "advanced tier unreachable: quiz ends after %d questions", r.TotalQuestions)
	}
	return issues
}

// bestRun is the XP earned by answering n scenarios of a circular list perfectly.
func bestRun(list []domain.Scenario, n int) int {
	if len(list) == 0 {
		return 0
	}
	total := 0
	for i := 0; i < n; i++ {
		if xp := list[i%len(list)].MaxExperience(); xp > 0 {
			total += xp
		}
	}
	return total
}
