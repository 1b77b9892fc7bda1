package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/progression"
)

func TestPlayOverConsole(t *testing.T) {
	engine := newEngine(t)
	var out bytes.Buffer
	p := NewPresenter(strings.NewReader("abc\n5\n1\n1\n1\n"), &out)

	summary, err := progression.Play(context.Background(), engine, p)
	require.NoError(t, err)
	require.NoError(t, p.RenderSummary(context.Background(), summary))

	text := out.String()
	assert.Contains(t, text, "=== BASIC scenarios ===")
	assert.Contains(t, text, "Scenario 1: Pipeline is red")
	assert.Equal(t, 2, strings.Count(text, "Enter a number between 1 and 2."))
	assert.Contains(t, text, "=== Quiz complete ===")
	assert.Len(t, summary.History, 3)
}

func TestCaptureSelectionMapsDisplayOrder(t *testing.T) {
	p := NewPresenter(strings.NewReader("2\n"), io.Discard)
	view := domain.ScenarioView{Options: []domain.OptionView{
		{Index: 1, Text: "second authored"},
		{Index: 0, Text: "first authored"},
	}}
	require.NoError(t, p.RenderScenario(context.Background(), view))

	idx, err := p.CaptureSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestCaptureSelectionStopAndEOF(t *testing.T) {
	p := NewPresenter(strings.NewReader("Q\n"), io.Discard)
	require.NoError(t, p.RenderScenario(context.Background(), domain.ScenarioView{Options: make([]domain.OptionView, 2)}))

	_, err := p.CaptureSelection(context.Background())
	assert.True(t, errors.Is(err, progression.ErrStop))

	_, err = p.CaptureSelection(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestCaptureSelectionHonoursContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPresenter(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.CaptureSelection(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseReleasesReader(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPresenter(r, io.Discard)
	p.Close()
	p.Close()

	_, err := io.WriteString(w, "1\n")
	require.NoError(t, err)

	select {
	case <-p.exited:
	case <-time.After(time.Second):
		t.Fatal("reader goroutine still blocked after Close")
	}
	_, err = p.CaptureSelection(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestRenderOutcomeShowsUnlockedTool(t *testing.T) {
	var out bytes.Buffer
	p := NewPresenter(strings.NewReader(""), &out)
	require.NoError(t, p.RenderOutcome(context.Background(), domain.Outcome{
		Text: "Bisect found the commit", Experience: 20, Tool: "git bisect", Unlocked: true, TotalExperience: 40,
	}))
	assert.Contains(t, out.String(), "Experience +20 (total 40)")
	assert.Contains(t, out.String(), "New tool unlocked: git bisect")
}

func newEngine(t *testing.T) *progression.Engine {
	t.Helper()
	scenario := func(id string) []domain.Scenario {
		return []domain.Scenario{{
			ID:          id,
			Title:       "Pipeline is red",
			Description: "The nightly build failed.",
			Options: []domain.Option{
				{Text: "Read the log", Outcome: "Found the flaky step", Experience: 20},
				{Text: "Rerun", Outcome: "Still red", Experience: 0},
			},
		}}
	}
	quiz := domain.Quiz{
		Name: "ci",
		Rules: domain.Rules{
			MaxXP:          60,
			TotalQuestions: 3,
			Basic:          domain.Gate{Questions: 1, MinXP: 10},
			Intermediate:   domain.Gate{Questions: 2, MinXP: 30},
			Performance:    []domain.PerformanceThreshold{{Threshold: 0, Message: "Done"}},
		},
		Scenarios: domain.Bank{Basic: scenario("b1"), Intermediate: scenario("i1"), Advanced: scenario("a1")},
	}
	engine, err := progression.New(quiz, progression.WithRand(rand.New(rand.NewSource(3))))
	require.NoError(t, err)
	return engine
}
