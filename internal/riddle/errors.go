package riddle

import (
	"errors"

	"github.com/vnishchay/reasoning-game/internal/store"
)

var (
	// ErrInvalidLevel is returned for levels outside 1..49.
	ErrInvalidLevel = errors.New("level must be between 1 and 49")

	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrNotFound is returned when no riddle is stored for a level.
	ErrNotFound = store.ErrNotFound

	// ErrGeneration wraps failures of the model call or of parsing its output.
	ErrGeneration = errors.New("riddle generation failed")

	// ErrJudge wraps failures of the answer-judging model call.
	ErrJudge = errors.New("answer judgement failed")

	// ErrSweepInProgress is returned when a regeneration sweep is already running.
	ErrSweepInProgress = errors.New("regeneration sweep already in progress")
)
