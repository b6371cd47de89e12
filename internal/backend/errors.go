package backend

import "errors"

// ErrNotFound and related errors describe backend failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported resume format")
	ErrNoJDSkills        = errors.New("no recognisable skills in job description")
	ErrEmptyResume       = errors.New("no text in resume")
)
