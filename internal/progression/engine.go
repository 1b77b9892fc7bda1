// Package progression runs the three-tier scenario quiz: it owns a learner's
// progress, picks the active tier, scores answers and classifies the result.
package progression

import (
	"math"
	"math/rand"
	"slices"
	"time"

	"scenario-quiz-service/internal/domain"
)

// Phase is the coarse state of an engine.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInTier
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInTier:
		return "in_tier"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Progress is a learner's mutable runtime state.
type Progress struct {
	Experience    int
	Tools         []string
	ScenarioIndex int
	History       []domain.HistoryEntry
}

// Engine drives one learner through a quiz. It is not safe for concurrent use.
type Engine struct {
	quiz domain.Quiz
	rnd  *rand.Rand

	phase    Phase
	progress Progress
	reached  domain.Tier

	current     *domain.Scenario
	currentView domain.ScenarioView
	summary     *domain.Summary
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the source used to shuffle options.
func WithRand(rnd *rand.Rand) Option {
	return func(e *Engine) {
		e.rnd = rnd
	}
}

// New validates the quiz and returns an initialized engine.
func New(quiz domain.Quiz, opts ...Option) (*Engine, error) {
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{quiz: quiz.Normalized()}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.Initialize()
	return e, nil
}

// QuizName is the read-only name of the quiz being played.
func (e *Engine) QuizName() string {
	return e.quiz.Name
}

// Rules exposes the normalized progression rules.
func (e *Engine) Rules() domain.Rules {
	return e.quiz.Rules
}

// Phase reports where the engine is in its lifecycle.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Initialize resets progress and restarts the state machine.
func (e *Engine) Initialize() {
	e.phase = PhaseNotStarted
	e.progress = Progress{}
	e.reached = domain.TierBasic
	e.current = nil
	e.currentView = domain.ScenarioView{}
	e.summary = nil
}

// Progress returns a copy of the learner's progress.
func (e *Engine) Progress() Progress {
	p := e.progress
	p.Tools = slices.Clone(e.progress.Tools)
	p.History = slices.Clone(e.progress.History)
	return p
}

// CurrentTier picks the tier from answered count and XP. A session never
// drops below the highest tier it has already been presented.
func (e *Engine) CurrentTier() domain.Tier {
	tier := e.gatedTier(len(e.progress.History), e.progress.Experience)
	if tier.Rank() < e.reached.Rank() {
		return e.reached
	}
	return tier
}

func (e *Engine) gatedTier(answered, xp int) domain.Tier {
	r := e.quiz.Rules
	if answered >= r.Intermediate.Questions && xp >= r.Intermediate.MinXP {
		return domain.TierAdvanced
	}
	if answered >= r.Basic.Questions && xp >= r.Basic.MinXP {
		return domain.TierIntermediate
	}
	return domain.TierBasic
}

// ShouldTerminate reports whether the quiz is over. Only the answered count
// matters; xp is accepted for symmetry with the gates and ignored.
func (e *Engine) ShouldTerminate(answered, xp int) bool {
	return answered >= e.quiz.Rules.TotalQuestions
}

// PresentNext returns the scenario to show. It returns the pending scenario
// again until it is answered, and false once the quiz has finished.
func (e *Engine) PresentNext() (domain.ScenarioView, bool) {
	if e.phase == PhaseFinished {
		return domain.ScenarioView{}, false
	}
	if e.current != nil {
		return e.currentView, true
	}

	answered := len(e.progress.History)
	if e.ShouldTerminate(answered, e.progress.Experience) {
		e.Finalize()
		return domain.ScenarioView{}, false
	}

	var (
		tier domain.Tier
		sc   domain.Scenario
	)
	for {
		tier = e.CurrentTier()
		var ok bool
		if sc, ok = e.quiz.Scenarios.Scenario(tier, e.progress.ScenarioIndex); ok {
			break
		}
		if e.ShouldTerminate(answered, e.progress.Experience) {
			e.Finalize()
			return domain.ScenarioView{}, false
		}
		// Tier lists are circular until the next gate opens.
		e.progress.ScenarioIndex = 0
	}

	e.phase = PhaseInTier
	e.reached = tier
	e.current = &sc
	e.currentView = e.view(sc, tier)
	return e.currentView, true
}

func (e *Engine) view(sc domain.Scenario, tier domain.Tier) domain.ScenarioView {
	history := e.progress.History
	changed := len(history) == 0 || history[len(history)-1].Tier != tier

	options := make([]domain.OptionView, len(sc.Options))
	for pos, idx := range e.rnd.Perm(len(sc.Options)) {
		options[pos] = domain.OptionView{Index: idx, Text: sc.Options[idx].Text}
	}
	return domain.ScenarioView{
		QuizName:    e.quiz.Name,
		Tier:        tier,
		TierChanged: changed,
		Number:      len(history) + 1,
		ScenarioID:  sc.ID,
		Title:       sc.Title,
		Description: sc.Description,
		Options:     options,
	}
}

// SubmitAnswer scores the option at its authored index for the pending scenario.
func (e *Engine) SubmitAnswer(optionIndex int) (domain.Outcome, error) {
	if e.phase == PhaseFinished {
		return domain.Outcome{}, domain.ErrQuizFinished
	}
	if e.current == nil {
		return domain.Outcome{}, domain.ErrNoActiveScenario
	}
	sc := *e.current
	if optionIndex < 0 || optionIndex >= len(sc.Options) {
		return domain.Outcome{}, domain.ErrOptionNotFound
	}
	opt := sc.Options[optionIndex]

	e.progress.Experience = clamp(e.progress.Experience+opt.Experience, 0, e.quiz.Rules.MaxXP)
	e.progress.History = append(e.progress.History, domain.HistoryEntry{
		Scenario:      sc,
		Tier:          e.currentView.Tier,
		OptionIndex:   optionIndex,
		Selected:      opt,
		MaxExperience: sc.MaxExperience(),
	})

	unlocked := false
	if opt.Tool != "" && !slices.Contains(e.progress.Tools, opt.Tool) {
		e.progress.Tools = append(e.progress.Tools, opt.Tool)
		unlocked = true
	}

	e.progress.ScenarioIndex++
	e.current = nil
	e.currentView = domain.ScenarioView{}

	return domain.Outcome{
		ScenarioID:      sc.ID,
		Text:            opt.Outcome,
		Experience:      opt.Experience,
		Tool:            opt.Tool,
		Unlocked:        unlocked,
		TotalExperience: e.progress.Experience,
	}, nil
}

// Finalize ends the quiz and returns its summary. Repeated calls return the
// same summary until Initialize is called.
func (e *Engine) Finalize() domain.Summary {
	if e.summary != nil {
		return *e.summary
	}
	r := e.quiz.Rules
	final := clamp(e.progress.Experience, 0, r.MaxXP)
	summary := domain.Summary{
		QuizName:        e.quiz.Name,
		FinalScore:      final,
		MaxXP:           r.MaxXP,
		ScorePercentage: int(math.Round(float64(final) / float64(r.MaxXP) * 100)),
		Message:         Classify(r.Performance, final),
		Tools:           append([]string{}, e.progress.Tools...),
		History:         slices.Clone(e.progress.History),
	}
	e.phase = PhaseFinished
	e.current = nil
	e.summary = &summary
	return summary
}

// Classify returns the message of the first threshold, scanned highest
// first, that the score reaches. It returns "" when none applies.
func Classify(thresholds []domain.PerformanceThreshold, score int) string {
	ordered := slices.Clone(thresholds)
	slices.SortStableFunc(ordered, func(a, b domain.PerformanceThreshold) int {
		return b.Threshold - a.Threshold
	})
	for _, th := range ordered {
		if score >= th.Threshold {
			return th.Message
		}
	}
	return ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
