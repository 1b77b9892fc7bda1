package domain

import (
	"encoding/json"
	"time"
)

// Tier is a difficulty band gating scenario progression.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
)

// Tiers lists every tier in progression order.
var Tiers = []Tier{TierBasic, TierIntermediate, TierAdvanced}

// Rank orders tiers; unknown tiers rank below basic.
func (t Tier) Rank() int {
	switch t {
	case TierBasic:
		return 0
	case TierIntermediate:
		return 1
	case TierAdvanced:
		return 2
	}
	return -1
}

// Option is one authored answer to a scenario.
type Option struct {
	Text       string `json:"text" yaml:"text"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	Experience int    `json:"experience" yaml:"experience"`
	Tool       string `json:"tool,omitempty" yaml:"tool,omitempty"`
	// Correct is optional authoring metadata; scoring only uses Experience.
	Correct bool `json:"correct,omitempty" yaml:"correct,omitempty"`
}

// Scenario models a single quiz question with its authored options.
type Scenario struct {
	ID          string   `json:"id" yaml:"id"`
	Tier        Tier     `json:"tier,omitempty" yaml:"-"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Options     []Option `json:"options" yaml:"options"`
}

// MaxExperience is the best XP obtainable from the scenario.
func (s Scenario) MaxExperience() int {
	best := 0
	for i, opt := range s.Options {
		if i == 0 || opt.Experience > best {
			best = opt.Experience
		}
	}
	return best
}

// Bank holds the ordered scenarios of each tier.
type Bank struct {
	Basic        []Scenario `json:"basic" yaml:"basic"`
	Intermediate []Scenario `json:"intermediate" yaml:"intermediate"`
	Advanced     []Scenario `json:"advanced" yaml:"advanced"`
}

// ForTier returns the scenario list of a tier.
func (b Bank) ForTier(t Tier) []Scenario {
	switch t {
	case TierIntermediate:
		return b.Intermediate
	case TierAdvanced:
		return b.Advanced
	default:
		return b.Basic
	}
}

// Scenario reads one scenario by tier and index.
func (b Bank) Scenario(t Tier, i int) (Scenario, bool) {
	list := b.ForTier(t)
	if i < 0 || i >= len(list) {
		return Scenario{}, false
	}
	return list[i], true
}

// Len is the number of scenarios across all tiers.
func (b Bank) Len() int {
	return len(b.Basic) + len(b.Intermediate) + len(b.Advanced)
}

// Gate is the (question count, minimum XP) pair that unlocks the next tier.
type Gate struct {
	Questions int `json:"questions" yaml:"questions"`
	MinXP     int `json:"minXp" yaml:"min_xp"`
}

// PerformanceThreshold maps a final-score cutoff to a summary message.
type PerformanceThreshold struct {
	Threshold int    `json:"threshold" yaml:"threshold"`
	Message   string `json:"message" yaml:"message"`
}

// Rules is the static progression configuration of a quiz.
type Rules struct {
	MaxXP          int                    `json:"maxXp" yaml:"max_xp"`
	TotalQuestions int                    `json:"totalQuestions" yaml:"total_questions"`
	Basic          Gate                   `json:"basic" yaml:"basic"`
	Intermediate   Gate                   `json:"intermediate" yaml:"intermediate"`
	Performance    []PerformanceThreshold `json:"performance" yaml:"performance"`
}

// Quiz is a named content module: rules plus scenario bank.
type Quiz struct {
	Name      string `json:"name" yaml:"name"`
	Title     string `json:"title" yaml:"title"`
	Rules     Rules  `json:"rules" yaml:"rules"`
	Scenarios Bank   `json:"scenarios" yaml:"scenarios"`
}

// OptionView is what a learner sees of an option before answering.
type OptionView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ScenarioView is the presentation of the current scenario.
// Options are in display order; Index always refers to the authored order.
type ScenarioView struct {
	QuizName    string       `json:"quizName"`
	Tier        Tier         `json:"tier"`
	TierChanged bool         `json:"tierChanged"`
	Number      int          `json:"number"`
	ScenarioID  string       `json:"scenarioId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Options     []OptionView `json:"options"`
}

// Outcome is the feedback for a submitted answer.
type Outcome struct {
	ScenarioID      string `json:"scenarioId"`
	Text            string `json:"text"`
	Experience      int    `json:"experience"`
	Tool            string `json:"tool,omitempty"`
	Unlocked        bool   `json:"unlocked"`
	TotalExperience int    `json:"totalExperience"`
}

// HistoryEntry records one answered scenario.
type HistoryEntry struct {
	Scenario      Scenario `json:"scenario"`
	Tier          Tier     `json:"tier"`
	OptionIndex   int      `json:"optionIndex"`
	Selected      Option   `json:"selected"`
	MaxExperience int      `json:"maxExperience"`
}

// Percent is the share of the obtainable XP that the answer earned, floored at zero.
func (h HistoryEntry) Percent() int {
	if h.MaxExperience <= 0 {
		return 0
	}
	if h.Selected.Experience <= 0 {
		return 0
	}
	return h.Selected.Experience * 100 / h.MaxExperience
}

// Summary is the terminal result of a quiz run.
type Summary struct {
	QuizName        string         `json:"quizName"`
	FinalScore      int            `json:"finalScore"`
	MaxXP           int            `json:"maxXp"`
	ScorePercentage int            `json:"scorePercentage"`
	Message         string         `json:"message"`
	Tools           []string       `json:"tools"`
	History         []HistoryEntry `json:"history"`
}

// Setting is an operator-configurable key/value document.
type Setting struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ScoreRecord is the persisted result of a finished quiz.
type ScoreRecord struct {
	Username   string    `json:"username"`
	QuizName   string    `json:"quizName"`
	Percentage int       `json:"percentage"`
	FinalScore int       `json:"finalScore"`
	MaxXP      int       `json:"maxXp"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
