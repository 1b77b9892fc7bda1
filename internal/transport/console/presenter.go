// Package console renders a quiz on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/progression"
)

// Presenter implements progression.Presenter over line-based text streams.
// Learners pick options by their displayed number or type q to stop.
type Presenter struct {
	out   io.Writer
	lines chan lineResult
	view  domain.ScenarioView

	done      chan struct{}
	closeOnce sync.Once
	exited    chan struct{}
}

type lineResult struct {
	text string
	err  error
}

// NewPresenter starts reading in immediately. The reader goroutine exits at
// EOF, or at the next line after Close.
func NewPresenter(in io.Reader, out io.Writer) *Presenter {
	p := &Presenter{
		out:    out,
		lines:  make(chan lineResult),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go p.read(in)
	return p
}

// Close stops delivering input. It does not close the underlying reader.
func (p *Presenter) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *Presenter) read(in io.Reader) {
	defer close(p.exited)
	defer close(p.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !p.deliver(lineResult{text: scanner.Text()}) {
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	p.deliver(lineResult{err: err})
}

func (p *Presenter) deliver(line lineResult) bool {
	select {
	case p.lines <- line:
		return true
	case <-p.done:
		return false
	}
}

func (p *Presenter) RenderScenario(_ context.Context, view domain.ScenarioView) error {
	p.view = view
	var b strings.Builder
	if view.TierChanged {
		fmt.Fprintf(&b, "\n=== %s scenarios ===\n", strings.ToUpper(string(view.Tier)))
	}
	fmt.Fprintf(&b, "\nScenario %d: %s\n", view.Number, view.Title)
	if view.Description != "" {
		fmt.Fprintf(&b, "%s\n", view.Description)
	}
	for i, opt := range view.Options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, opt.Text)
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

// CaptureSelection maps the displayed number back to the authored option index.
func (p *Presenter) CaptureSelection(ctx context.Context) (int, error) {
	for {
		if _, err := fmt.Fprintf(p.out, "Your choice (1-%d, q to stop): ", len(p.view.Options)); err != nil {
			return 0, err
		}
		var line lineResult
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case l, ok := <-p.lines:
			if !ok {
				return 0, io.EOF
			}
			line = l
		}
		if line.err != nil {
			return 0, line.err
		}

		text := strings.TrimSpace(line.text)
		if strings.EqualFold(text, "q") {
			return 0, progression.ErrStop
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > len(p.view.Options) {
			fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(p.view.Options))
			continue
		}
		return p.view.Options[n-1].Index, nil
	}
}

func (p *Presenter) RenderOutcome(_ context.Context, outcome domain.Outcome) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", outcome.Text)
	fmt.Fprintf(&b, "Experience %+d (total %d)\n", outcome.Experience, outcome.TotalExperience)
	if outcome.Unlocked {
		fmt.Fprintf(&b, "New tool unlocked: %s\n", outcome.Tool)
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Presenter) RenderSummary(_ context.Context, summary domain.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Quiz complete ===\n")
	fmt.Fprintf(&b, "Final score: %d/%d (%d%%)\n", summary.FinalScore, summary.MaxXP, summary.ScorePercentage)
	if summary.Message != "" {
		fmt.Fprintf(&b, "%s\n", summary.Message)
	}
	if len(summary.Tools) > 0 {
		fmt.Fprintf(&b, "Tools: %s\n", strings.Join(summary.Tools, ", "))
	}
	for i, entry := range summary.History {
		fmt.Fprintf(&b, "  %2d. [%s] %s: %d%%\n", i+1, entry.Tier, entry.Scenario.Title, entry.Percent())
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Presenter) RenderError(_ context.Context, err error) error {
	_, werr := fmt.Fprintf(p.out, "Error: %v\n", err)
	return werr
}
