package domain

import "errors"

var (
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidTitle        = errors.New("invalid title")
	ErrInvalidStatus       = errors.New("invalid phase status")
	ErrInvalidResourceType = errors.New("invalid resource type")
	ErrInvalidURL          = errors.New("invalid resource url")
	ErrInvalidHours        = errors.New("invalid estimated hours")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInvalidProgress     = errors.New("invalid progress record")
	ErrInvalidProfile      = errors.New("invalid profile")
)
