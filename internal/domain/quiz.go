package domain

import (
	"fmt"
	"sort"
)

// Validate checks the rules and bank are runnable by the progression engine.
func (q Quiz) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidQuiz)
	}
	r := q.Rules
	if r.MaxXP <= 0 {
		return fmt.Errorf("%w: %s: max_xp must be positive", ErrInvalidQuiz, q.Name)
	}
	if r.TotalQuestions <= 0 {
		return fmt.Errorf("%w: %s: total_questions must be positive", ErrInvalidQuiz, q.Name)
	}
	if r.Intermediate.Questions < r.Basic.Questions || r.Intermediate.MinXP < r.Basic.MinXP {
		return fmt.Errorf("%w: %s: intermediate gate below basic gate", ErrInvalidQuiz, q.Name)
	}
	if len(r.Performance) == 0 {
		return fmt.Errorf("%w: %s: no performance thresholds", ErrInvalidQuiz, q.Name)
	}
	for _, tier := range Tiers {
		list := q.Scenarios.ForTier(tier)
		if len(list) == 0 {
			return fmt.Errorf("%w: %s: no %s scenarios", ErrInvalidQuiz, q.Name, tier)
		}
		for _, sc := range list {
			if len(sc.Options) == 0 {
				return fmt.Errorf("%w: %s: scenario %q has no options", ErrInvalidQuiz, q.Name, sc.ID)
			}
		}
	}
	return nil
}

// Normalized returns a copy with every scenario tagged by its tier and the
// performance thresholds ordered highest first.
func (q Quiz) Normalized() Quiz {
	out := q
	out.Scenarios = Bank{
		Basic:        tagged(q.Scenarios.Basic, TierBasic),
		Intermediate: tagged(q.Scenarios.Intermediate, TierIntermediate),
		Advanced:     tagged(q.Scenarios.Advanced, TierAdvanced),
	}
	perf := make([]PerformanceThreshold, len(q.Rules.Performance))
	copy(perf, q.Rules.Performance)
	sort.SliceStable(perf, func(i, j int) bool {
		return perf[i].Threshold > perf[j].Threshold
	})
	out.Rules.Performance = perf
	return out
}

func tagged(list []Scenario, tier Tier) []Scenario {
	out := make([]Scenario, len(list))
	for i, sc := range list {
		sc.Tier = tier
		opts := make([]Option, len(sc.Options))
		copy(opts, sc.Options)
		sc.Options = opts
		out[i] = sc
	}
	return out
}
