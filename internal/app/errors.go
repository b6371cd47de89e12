package app

import "errors"

// ErrConcurrentMutation and related errors describe coordinator failures.
var (
	ErrConcurrentMutation = errors.New("mutation already in flight")
	ErrProfileRequired    = errors.New("profile required")
	ErrRemoteFailure      = errors.New("remote failure")
	ErrNoRoadmap          = errors.New("no active roadmap")
	ErrResetCanceled      = errors.New("reset canceled")
	ErrClosed             = errors.New("coordinator closed")
	ErrEmptyPlan          = errors.New("analysis has no skills to learn")
)
