package progression

import (
	"context"
	"errors"
	"fmt"

	"scenario-quiz-service/internal/domain"
)

// ErrStop is returned by CaptureSelection when the learner ends the quiz early.
var ErrStop = errors.New("learner stopped the quiz")

// Presenter renders engine state to a learner and captures their choices.
type Presenter interface {
	RenderScenario(ctx context.Context, view domain.ScenarioView) error
	// CaptureSelection returns the authored index of the chosen option.
	CaptureSelection(ctx context.Context) (int, error)
	RenderOutcome(ctx context.Context, outcome domain.Outcome) error
	RenderSummary(ctx context.Context, summary domain.Summary) error
}

// ErrorRenderer is implemented by presenters that can show rejected input.
type ErrorRenderer interface {
	RenderError(ctx context.Context, err error) error
}

// Machine is the part of an engine that Play drives. *Engine implements it.
type Machine interface {
	PresentNext() (domain.ScenarioView, bool)
	SubmitAnswer(optionIndex int) (domain.Outcome, error)
	Finalize() domain.Summary
}

// Play drives m until the quiz finishes and returns the summary.
// The summary is not rendered; callers decide when to show it.
func Play(ctx context.Context, m Machine, p Presenter) (domain.Summary, error) {
	for {
		view, ok := m.PresentNext()
		if !ok {
			return m.Finalize(), nil
		}
		if err := p.RenderScenario(ctx, view); err != nil {
			return domain.Summary{}, fmt.Errorf("render scenario: %w", err)
		}

		outcome, err := answer(ctx, m, p)
		if errors.Is(err, ErrStop) {
			return m.Finalize(), nil
		}
		if err != nil {
			return domain.Summary{}, err
		}
		if err := p.RenderOutcome(ctx, outcome); err != nil {
			return domain.Summary{}, fmt.Errorf("render outcome: %w", err)
		}
	}
}

func answer(ctx context.Context, m Machine, p Presenter) (domain.Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Outcome{}, err
		}
		idx, err := p.CaptureSelection(ctx)
		if err != nil {
			return domain.Outcome{}, fmt.Errorf("capture selection: %w", err)
		}
		outcome, err := m.SubmitAnswer(idx)
		if errors.Is(err, domain.ErrOptionNotFound) {
			if r, ok := p.(ErrorRenderer); ok {
				if err := r.RenderError(ctx, err); err != nil {
					return domain.Outcome{}, fmt.Errorf("render error: %w", err)
				}
			}
			continue
		}
		return outcome, err
	}
}
