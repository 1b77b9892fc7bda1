// Package content loads quiz content modules written as YAML.
package content

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"scenario-quiz-service/internal/domain"
)

//go:embed quizzes/*.yaml
var bundled embed.FS

// Bundled returns the quizzes compiled into the binary, keyed by name.
func Bundled() (map[string]domain.Quiz, error) {
	sub, err := fs.Sub(bundled, "quizzes")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads every *.yaml / *.yml file at the root of fsys.
func Load(fsys fs.FS) (map[string]domain.Quiz, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}
	quizzes := make(map[string]domain.Quiz)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := path.Ext(entry.Name()); ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		quiz, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if _, dup := quizzes[quiz.Name]; dup {
			return nil, fmt.Errorf("%s: %w: duplicate quiz name %q", entry.Name(), domain.ErrInvalidQuiz, quiz.Name)
		}
		quizzes[quiz.Name] = quiz
	}
	return quizzes, nil
}

// Parse decodes and validates a single content module.
func Parse(data []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz: %w", err)
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	return quiz.Normalized(), nil
}

// Names returns quiz names in sorted order.
func Names(quizzes map[string]domain.Quiz) []string {
	names := make([]string, 0, len(quizzes))
	for name := range quizzes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
