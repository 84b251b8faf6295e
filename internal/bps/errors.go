package bps

import "errors"

var (
	// ErrEmptyText indicates report text with no classifiable content.
	ErrEmptyText = errors.New("report text is empty")
	// ErrClassifyFailed indicates the classifier could not produce a result.
	ErrClassifyFailed = errors.New("classification failed")
	// ErrSummarizeFailed indicates narrative generation failed.
	ErrSummarizeFailed = errors.New("summarization failed")
)
