package domain

import "errors"

var (
	// ErrStateNotFound is returned when a render state has not been created or has expired.
	ErrStateNotFound = errors.New("render state not found")
	// ErrQuestionNotFound indicates the question content could not be loaded.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a clicked option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAnswerKeyEmpty is returned when the answer-key text holds no option letters.
	ErrAnswerKeyEmpty = errors.New("answer key has no option letters")
)
