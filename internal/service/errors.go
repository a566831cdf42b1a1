package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrAlreadyRefreshing = errors.New("refresh already in progress")

	ErrFetch       = errors.New("feed fetch failed")
	ErrClassifier  = errors.New("classifier failed")
	ErrPersistence = errors.New("persistence failed")
	ErrPublish     = errors.New("publish failed")
)

// FetchError is returned when a feed cannot be downloaded or parsed.
type FetchError struct {
	FeedURL string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.FeedURL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// ClassifierError names the ensemble member that failed or returned a mis-shaped result.
type ClassifierError struct {
	Classifier string
	Err        error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Classifier, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

func (e *ClassifierError) Is(target error) bool {
	return target == ErrClassifier
}

// PersistenceError wraps a storage failure. Nothing from the feed pass was committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// PublishError is returned when the output document cannot be built or written.
type PublishError struct {
	Path string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Path, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func (e *PublishError) Is(target error) bool {
	return target == ErrPublish
}

// stageOf names the pipeline stage an error came from, for logs and metrics.
func stageOf(err error) string {
	switch {
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrClassifier):
		return "classify"
	case errors.Is(err, ErrPersistence):
		return "persist"
	case errors.Is(err, ErrPublish):
		return "publish"
	default:
		return "unknown"
	}
}
