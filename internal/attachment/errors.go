package attachment

import "errors"

var (
	ErrUnknownRole     = errors.New("unknown attachment role")
	ErrNotFound        = errors.New("attachment not found")
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)
