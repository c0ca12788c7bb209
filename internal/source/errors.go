package source

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a URL answers 404.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedContent is returned for content types or file extensions
	// no grammar can handle.
	ErrUnsupportedContent = errors.New("unsupported content")
)

// FetchError describes a failed HTTP retrieval.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
