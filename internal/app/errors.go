package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrNoteNotFound     = errors.New("note not found")
)
