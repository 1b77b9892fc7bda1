package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a learner session does not exist or was reset.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates rules or scenario bank the engine cannot run.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrOptionNotFound indicates a submitted option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNoActiveScenario is returned when an answer arrives before a scenario was presented.
	ErrNoActiveScenario = errors.New("no scenario presented")
	// ErrQuizFinished is returned for answers after the quiz terminated.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrLearnerRequired is returned when a quiz is started without a username.
	ErrLearnerRequired = errors.New("username required")
	// ErrSettingNotFound is returned for unknown setting keys.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrInvalidSetting indicates an empty key or a value that is not JSON.
	ErrInvalidSetting = errors.New("invalid setting")
)
